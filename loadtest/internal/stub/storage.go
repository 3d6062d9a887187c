package stub

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
)

const rejectedTokenMarker = "reject"

type runState struct {
	users      []string
	received   int
	accepted   int
	rejected   int
	duplicates int
	delivered  map[string]int // handle|token -> deliveries
}

func newRunState() *runState {
	return &runState{delivered: make(map[string]int)}
}

// Storage holds seeded profiles and what the push receiver has seen, per run.
type Storage struct {
	mu       sync.RWMutex
	profiles map[string]ProfileResponse // userID -> profile
	tokenRun map[string]string          // token -> runID
	runs     map[string]*runState
}

func NewStorage() *Storage {
	return &Storage{
		profiles: make(map[string]ProfileResponse),
		tokenRun: make(map[string]string),
		runs:     make(map[string]*runState),
	}
}

func (s *Storage) Reset(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		return
	}
	for _, userID := range run.users {
		for _, token := range s.profiles[userID].PushTokens {
			delete(s.tokenRun, token)
		}
		delete(s.profiles, userID)
	}
	delete(s.runs, runID)
}

func (s *Storage) ResetAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles = make(map[string]ProfileResponse)
	s.tokenRun = make(map[string]string)
	s.runs = make(map[string]*runState)
}

// Seed creates the group's users and returns their ids.
func (s *Storage) Seed(runID string, group SeedGroup) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	run, ok := s.runs[runID]
	if !ok {
		run = newRunState()
		s.runs[runID] = run
	}

	tokensPerUser := group.TokensPerUser
	if tokensPerUser <= 0 {
		tokensPerUser = 1
	}
	rejectEvery := 0
	if group.RejectRatio > 0 {
		rejectEvery = int(1 / group.RejectRatio)
	}

	ids := make([]string, 0, group.Count)
	for i := 0; i < group.Count; i++ {
		userID := fmt.Sprintf("%s-user-%d", runID, len(run.users))
		rejected := rejectEvery > 0 && i%rejectEvery == 0

		tokens := make([]string, 0, tokensPerUser)
		for t := 0; t < tokensPerUser; t++ {
			token := generateToken(userID, t, rejected)
			tokens = append(tokens, token)
			s.tokenRun[token] = runID
		}

		s.profiles[userID] = ProfileResponse{
			UserID:       userID,
			Timezone:     group.Timezone,
			TrialEndDate: group.TrialEndDate,
			PushTokens:   tokens,
		}
		run.users = append(run.users, userID)
		ids = append(ids, userID)
	}
	return ids
}

func (s *Storage) Profile(userID string) (ProfileResponse, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[userID]
	return p, ok
}

// RecordPush registers one delivery attempt and reports whether the token is
// accepted.
func (s *Storage) RecordPush(token, handle string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	runID, ok := s.tokenRun[token]
	if !ok {
		runID = "unknown"
	}
	run, ok := s.runs[runID]
	if !ok {
		run = newRunState()
		s.runs[runID] = run
	}

	run.received++
	key := handle + "|" + token
	run.delivered[key]++
	if run.delivered[key] > 1 {
		run.duplicates++
	}

	if strings.Contains(token, rejectedTokenMarker) {
		run.rejected++
		return false
	}
	run.accepted++
	return true
}

func (s *Storage) Stats(runID string) PushStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := PushStats{RunID: runID}
	if run, ok := s.runs[runID]; ok {
		stats.Received = run.received
		stats.Accepted = run.accepted
		stats.Rejected = run.rejected
		stats.Duplicates = run.duplicates
	}
	return stats
}

func generateToken(userID string, index int, rejected bool) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s-%d", userID, index)))
	id := hex.EncodeToString(hash[:8])
	if rejected {
		id = rejectedTokenMarker + "-" + id
	}
	return "ExponentPushToken[" + id + "]"
}
