package models

import (
	"testing"
	"time"
)

var (
	now    = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past   = now.Add(-time.Hour)
	future = now.Add(time.Hour)
)

func tp(t time.Time) *time.Time { return &t }

func TestProject_IsExpired(t *testing.T) {
	cases := []struct {
		name      string
		expiresAt *time.Time
		want      bool
	}{
		{"no expiry never expires", nil, false},
		{"future expiry", tp(future), false},
		{"past expiry", tp(past), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := &Project{Status: true, ExpiresAt: tc.expiresAt}
			if got := p.IsExpired(now); got != tc.want {
				t.Errorf("IsExpired = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestProject_IsActive(t *testing.T) {
	if (&Project{Status: false}).IsActive(now) {
		t.Error("disabled project reported active")
	}
	if (&Project{Status: true, ExpiresAt: tp(past)}).IsActive(now) {
		t.Error("expired project reported active")
	}
	if !(&Project{Status: true, ExpiresAt: tp(future)}).IsActive(now) {
		t.Error("enabled unexpired project reported inactive")
	}
}

func TestInvitationCode_EffectiveExpiry(t *testing.T) {
	own := tp(future)
	proj := tp(past)

	c := &InvitationCode{ExpiresAt: own}
	if got := c.EffectiveExpiry(proj); got != own {
		t.Error("own expiry should take precedence over project expiry")
	}

	c = &InvitationCode{}
	if got := c.EffectiveExpiry(proj); got != proj {
		t.Error("missing own expiry should fall back to project expiry")
	}
	if got := c.EffectiveExpiry(nil); got != nil {
		t.Error("no expiry anywhere should yield nil")
	}
}

func TestInvitationCode_ComputeExpired(t *testing.T) {
	cases := []struct {
		name          string
		code          InvitationCode
		projectExpiry *time.Time
		want          bool
	}{
		{"unused with past own expiry", InvitationCode{ExpiresAt: tp(past)}, nil, true},
		{"unused with future own expiry", InvitationCode{ExpiresAt: tp(future)}, nil, false},
		{"unused falls back to past project expiry", InvitationCode{}, tp(past), true},
		{"unused falls back to future project expiry", InvitationCode{}, tp(future), false},
		{"no expiry anywhere", InvitationCode{}, nil, false},
		// Expiry is only meaningful for unused codes: a used code stays used
		// even after its expiry lapses, and a disabled code stays disabled.
		{"used code never expires", InvitationCode{Status: true, ExpiresAt: tp(past)}, nil, false},
		{"disabled code never expires", InvitationCode{IsDisabled: true, ExpiresAt: tp(past)}, nil, false},
		{"own future expiry shadows past project expiry", InvitationCode{ExpiresAt: tp(future)}, tp(past), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.code.ComputeExpired(tc.projectExpiry, now); got != tc.want {
				t.Errorf("ComputeExpired = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestInvitationCode_IsValid(t *testing.T) {
	active := &Project{Status: true}
	disabled := &Project{Status: false}
	expired := &Project{Status: true, ExpiresAt: tp(past)}

	cases := []struct {
		name    string
		code    InvitationCode
		project *Project
		want    bool
	}{
		{"fresh code in active project", InvitationCode{}, active, true},
		{"used code", InvitationCode{Status: true}, active, false},
		{"disabled code", InvitationCode{IsDisabled: true}, active, false},
		{"expired code", InvitationCode{IsExpired: true}, active, false},
		{"disabled project", InvitationCode{}, disabled, false},
		{"expired project", InvitationCode{}, expired, false},
		{"nil project", InvitationCode{}, nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.code.IsValid(tc.project, now); got != tc.want {
				t.Errorf("IsValid = %v, want %v", got, tc.want)
			}
		})
	}
}
