package domain

import (
	"testing"

	"github.com/ubi-africa/ubi-tsp/services/tsp-service/internal/testutil"
)

func TestRidehailTrip_CanTransitionTo_ValidForwardStep(t *testing.T) {
	assert := testutil.NewAssert(t)
	trip := &RidehailTrip{Status: RidehailStatusProcessing}
	assert.True(trip.CanTransitionTo(RidehailStatusAccepted))
	assert.True(trip.CanTransitionTo(RidehailStatusCancelled))
}

func TestRidehailTrip_CanTransitionTo_SkipsStagesRejected(t *testing.T) {
	assert := testutil.NewAssert(t)
	trip := &RidehailTrip{Status: RidehailStatusProcessing}
	assert.False(trip.CanTransitionTo(RidehailStatusCompleted))
}

func TestRidehailTrip_CanTransitionTo_TerminalStatesHaveNoExit(t *testing.T) {
	assert := testutil.NewAssert(t)
	completed := &RidehailTrip{Status: RidehailStatusCompleted}
	assert.False(completed.CanTransitionTo(RidehailStatusAccepted))

	cancelled := &RidehailTrip{Status: RidehailStatusCancelled}
	assert.False(cancelled.CanTransitionTo(RidehailStatusInProgress))
}

func TestRidehailTrip_UpdateStatus_SetsCompletedOnForTerminalStates(t *testing.T) {
	assert := testutil.NewAssert(t)
	trip := &RidehailTrip{Status: RidehailStatusInProgress}
	err := trip.UpdateStatus(RidehailStatusCompleted)
	assert.Nil(err)
	assert.Equal(RidehailStatusCompleted, trip.Status)
	assert.NotNil(trip.CompletedOn)
}

func TestRidehailTrip_UpdateStatus_LeavesCompletedOnNilForNonTerminal(t *testing.T) {
	assert := testutil.NewAssert(t)
	trip := &RidehailTrip{Status: RidehailStatusProcessing}
	err := trip.UpdateStatus(RidehailStatusAccepted)
	assert.Nil(err)
	assert.Nil(trip.CompletedOn)
}

func TestRidehailTrip_UpdateStatus_RejectsIllegalTransition(t *testing.T) {
	assert := testutil.NewAssert(t)
	trip := &RidehailTrip{Status: RidehailStatusProcessing}
	err := trip.UpdateStatus(RidehailStatusInProgress)
	assert.NotNil(err)
	assert.Equal(RidehailStatusProcessing, trip.Status)
}

func TestRidehailTrip_IsTerminal(t *testing.T) {
	assert := testutil.NewAssert(t)
	assert.True((&RidehailTrip{Status: RidehailStatusCompleted}).IsTerminal())
	assert.True((&RidehailTrip{Status: RidehailStatusCancelled}).IsTerminal())
	assert.False((&RidehailTrip{Status: RidehailStatusAccepted}).IsTerminal())
}

func TestRidehailTrip_WebhookEventDedupe(t *testing.T) {
	assert := testutil.NewAssert(t)
	trip := &RidehailTrip{}
	assert.False(trip.HasSeenEvent("evt-1"))
	trip.MarkEventSeen("evt-1")
	assert.True(trip.HasSeenEvent("evt-1"))
	assert.False(trip.HasSeenEvent("evt-2"))
}
