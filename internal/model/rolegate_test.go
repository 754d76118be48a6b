package model

import "testing"

func user(roles ...string) *User {
	return &User{ID: 1, Username: "someone", Roles: roles}
}

func transfer(status string) *Transfer {
	return &Transfer{ID: 1, Status: status}
}

func TestLegalTransition(t *testing.T) {
	tests := []struct {
		from, to string
		expected bool
	}{
		{TransferPending, TransferInTransit, true},
		{TransferPending, TransferReceived, true},
		{TransferPending, TransferCancelled, true},
		{TransferPending, TransferCompleted, false},
		{TransferInTransit, TransferReceived, true},
		{TransferInTransit, TransferCancelled, true},
		{TransferInTransit, TransferCompleted, false},
		{TransferReceived, TransferCompleted, true},
		{TransferReceived, TransferCancelled, false},
		{TransferReceived, TransferPending, false},
		{TransferCompleted, TransferReceived, false},
		{TransferCancelled, TransferPending, false},
		{TransferCancelled, TransferCancelled, false},
	}

	for _, tt := range tests {
		if got := LegalTransition(tt.from, tt.to); got != tt.expected {
			t.Errorf("LegalTransition(%q, %q) = %v, want %v", tt.from, tt.to, got, tt.expected)
		}
	}
}

func TestCanTransitionRoles(t *testing.T) {
	tests := []struct {
		name     string
		user     *User
		status   string
		target   string
		expected bool
	}{
		{"carrier picks up pending", user(RoleCarrier), TransferPending, TransferInTransit, true},
		{"carrier cannot receive", user(RoleCarrier), TransferInTransit, TransferReceived, false},
		{"admin receives", user(RoleAdmin), TransferInTransit, TransferReceived, true},
		{"supervisor receives from pending", user(RoleSupervisor), TransferPending, TransferReceived, true},
		{"admin completes", user(RoleAdmin), TransferReceived, TransferCompleted, true},
		{"admin cancels pending", user(RoleAdmin), TransferPending, TransferCancelled, true},
		{"carrier cannot cancel", user(RoleCarrier), TransferPending, TransferCancelled, false},
		{"no roles no transitions", user(), TransferPending, TransferInTransit, false},
		{"admin cannot skip to completed", user(RoleAdmin), TransferPending, TransferCompleted, false},
		{"nothing leaves cancelled", user(RoleAdmin), TransferCancelled, TransferReceived, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanTransition(tt.user, transfer(tt.status), tt.target); got != tt.expected {
				t.Errorf("CanTransition = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestCanTransitionDisabledUser(t *testing.T) {
	u := user(RoleAdmin, RoleCarrier, RoleSupervisor)
	u.Disabled = true

	for _, target := range []string{TransferInTransit, TransferReceived, TransferCancelled} {
		if CanTransition(u, transfer(TransferPending), target) {
			t.Errorf("disabled user passed role check for %q", target)
		}
	}
}

func TestCanTransitionSuperuser(t *testing.T) {
	super := &User{ID: 99, Username: SuperUsername}

	if !CanTransition(super, transfer(TransferPending), TransferReceived) {
		t.Error("superuser should satisfy every role check")
	}
	if !CanTransition(super, transfer(TransferPending), TransferInTransit) {
		t.Error("superuser should satisfy the carrier role check")
	}
	// State legality still applies to the superuser.
	if CanTransition(super, transfer(TransferCompleted), TransferCancelled) {
		t.Error("superuser must not perform illegal state transitions")
	}
}

func TestNextForward(t *testing.T) {
	tests := []struct {
		name   string
		user   *User
		status string
		want   string
		ok     bool
	}{
		{"carrier from pending", user(RoleCarrier), TransferPending, TransferInTransit, true},
		{"admin from pending", user(RoleAdmin), TransferPending, TransferReceived, true},
		{"carrier and admin prefers transit", user(RoleCarrier, RoleAdmin), TransferPending, TransferInTransit, true},
		{"admin from transit", user(RoleAdmin), TransferInTransit, TransferReceived, true},
		{"supervisor from received", user(RoleSupervisor), TransferReceived, TransferCompleted, true},
		{"carrier from transit stuck", user(RoleCarrier), TransferInTransit, "", false},
		{"no one from completed", user(RoleAdmin), TransferCompleted, "", false},
		{"no one from cancelled", user(RoleAdmin), TransferCancelled, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextForward(tt.user, transfer(tt.status))
			if got != tt.want || ok != tt.ok {
				t.Errorf("NextForward = (%q, %v), want (%q, %v)", got, ok, tt.want, tt.ok)
			}
		})
	}

	// The superuser receives directly rather than taking the carrier path.
	super := &User{ID: 99, Username: SuperUsername}
	if got, ok := NextForward(super, transfer(TransferPending)); !ok || got != TransferReceived {
		t.Errorf("superuser NextForward = (%q, %v), want (%q, true)", got, ok, TransferReceived)
	}
}
