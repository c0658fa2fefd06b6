package application

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMeetingProvisioner_ReusesExistingMeetings(t *testing.T) {
	t.Parallel()

	store := newFakeStore(riverside())
	store.meetings["existing"] = Meeting{ID: "existing", ClubID: 1, Name: "Riverside Meeting 1", Date: day(2024, time.October, 1)}

	ids := &sequentialIDs{}
	provisioner := NewMeetingProvisioner(store, ids.next, "")

	got, err := provisioner.Provision(context.Background(), riverside(), []time.Time{day(2024, time.October, 1), day(2024, time.October, 15)})
	if err != nil {
		t.Fatalf("Provision returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected two meetings, got %d", len(got))
	}
	if got[0].Outcome != OutcomeReused || got[0].Meeting.ID != "existing" {
		t.Fatalf("expected first date to reuse the existing meeting, got %+v", got[0])
	}
	if got[1].Outcome != OutcomeCreated || got[1].Meeting.Name != "Riverside Meeting 2" {
		t.Fatalf("expected second date to create Riverside Meeting 2, got %+v", got[1])
	}
	if got[1].Meeting.Place != DefaultMeetingPlace {
		t.Fatalf("expected default place, got %q", got[1].Meeting.Place)
	}
	if store.createCalls != 1 {
		t.Fatalf("expected a single insert, got %d", store.createCalls)
	}
}

func TestMeetingProvisioner_DuplicateOnCreateIsReused(t *testing.T) {
	t.Parallel()

	store := newFakeStore(riverside())
	store.createConflicts[1] = true

	provisioner := NewMeetingProvisioner(store, (&sequentialIDs{}).next, "Town Hall")
	got, err := provisioner.Provision(context.Background(), riverside(), []time.Time{day(2024, time.October, 1)})
	if err != nil {
		t.Fatalf("Provision returned error: %v", err)
	}
	if len(got) != 1 || got[0].Outcome != OutcomeReused {
		t.Fatalf("expected reused meeting, got %+v", got)
	}
	if got[0].Meeting.ID != "winner-2024-10-01" {
		t.Fatalf("expected the concurrently created meeting, got %q", got[0].Meeting.ID)
	}
}

func TestMeetingProvisioner_StopsAtFirstFailure(t *testing.T) {
	t.Parallel()

	store := newFakeStore(riverside())
	store.findErr[1] = errors.New("read timeout")

	provisioner := NewMeetingProvisioner(store, (&sequentialIDs{}).next, "")
	got, err := provisioner.Provision(context.Background(), riverside(), []time.Time{day(2024, time.October, 1), day(2024, time.October, 15)})

	var pErr *ProvisionError
	if !errors.As(err, &pErr) {
		t.Fatalf("expected ProvisionError, got %v", err)
	}
	if !pErr.Date.Equal(day(2024, time.October, 1)) {
		t.Fatalf("unexpected failing date %v", pErr.Date)
	}
	if len(got) != 0 {
		t.Fatalf("expected no meetings, got %d", len(got))
	}
	if store.createCalls != 0 {
		t.Fatalf("expected no inserts after a failed lookup, got %d", store.createCalls)
	}
}

func TestMeetingProvisioner_NormalisesDates(t *testing.T) {
	t.Parallel()

	store := newFakeStore(riverside())
	provisioner := NewMeetingProvisioner(store, (&sequentialIDs{}).next, "")

	evening := time.Date(2024, time.October, 1, 21, 30, 0, 0, time.UTC)
	got, err := provisioner.Provision(context.Background(), riverside(), []time.Time{evening})
	if err != nil {
		t.Fatalf("Provision returned error: %v", err)
	}
	if !got[0].Meeting.Date.Equal(day(2024, time.October, 1)) {
		t.Fatalf("expected midnight date, got %v", got[0].Meeting.Date)
	}
}

func TestMeetingProvisioner_NilStore(t *testing.T) {
	t.Parallel()

	var provisioner *MeetingProvisioner
	if _, err := provisioner.Provision(context.Background(), riverside(), nil); err == nil {
		t.Fatal("expected error from nil provisioner")
	}
}
