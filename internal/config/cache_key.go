package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key for a user's login session
func (r *CacheKeyStruct) UserSessionKey(userID int) string {
	return fmt.Sprintf("login:%d", userID)
}

// ActiveStudySessionKey returns the cache key for a user's active study session ID
func (r *CacheKeyStruct) ActiveStudySessionKey(userID int) string {
	return fmt.Sprintf("user:%d:active_study_session", userID)
}

// PrefetchLockKey returns the lock key guarding duplicate prefetch jobs for a session
func (r *CacheKeyStruct) PrefetchLockKey(sessionID string) string {
	return fmt.Sprintf("session:%s:prefetch_lock", sessionID)
}

// CaseListKey returns the cache key for the case study list payload
func (r *CacheKeyStruct) CaseListKey() string {
	return "cases:list"
}

// CasePayloadKey returns the cache key for a full case study payload
func (r *CacheKeyStruct) CasePayloadKey(caseID string) string {
	return fmt.Sprintf("case:%s:payload", caseID)
}

// DomainStatsKey returns the cache key for a user's domain performance breakdown
func (r *CacheKeyStruct) DomainStatsKey(userID int) string {
	return fmt.Sprintf("user:%d:domain_stats", userID)
}

var CacheKey = NewCacheKeyStruct()
