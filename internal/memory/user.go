package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/stellarlinkco/anova/internal/store"
)

// UserPrefs are the long-term learned preferences for one user.
// PreferredProviders maps a domain name to a provider identifier.
type UserPrefs struct {
	Tone               string            `json:"tone,omitempty"`
	Detail             string            `json:"detail,omitempty"`
	PreferredProviders map[string]string `json:"preferredProviders,omitempty"`
}

// UserMemory is the persisted per-user document.
type UserMemory struct {
	Prefs          UserPrefs `json:"prefs"`
	Corrections    []string  `json:"corrections,omitempty"`
	LikedResponses int       `json:"likedResponses"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func defaultUserMemory() *UserMemory {
	return &UserMemory{}
}

func userPath(userID string) string {
	return "users/" + userID + "/memory"
}

// UserStore reads and writes UserMemory documents. Read and write failures at
// this boundary are logged and absorbed: callers always get a usable value.
type UserStore struct {
	docs store.DocumentStore
}

func NewUserStore(docs store.DocumentStore) *UserStore {
	return &UserStore{docs: docs}
}

// Load fetches the user's memory, returning defaults when the document is
// missing or the store fails.
func (u *UserStore) Load(ctx context.Context, userID string) *UserMemory {
	if userID == "" {
		return defaultUserMemory()
	}
	data, err := u.docs.Get(ctx, userPath(userID))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			log.Printf("[memory] load user %s warning: %v", userID, err)
		}
		return defaultUserMemory()
	}
	var mem UserMemory
	if err := json.Unmarshal(data, &mem); err != nil {
		log.Printf("[memory] decode user %s warning: %v", userID, err)
		return defaultUserMemory()
	}
	return &mem
}

// Save deep-merges the patch into the stored memory and persists the result:
// nested preference fields merge key by key, provider maps merge per domain,
// patch arrays overwrite, scalars take the most recent non-zero value.
func (u *UserStore) Save(ctx context.Context, userID string, patch *UserMemory) (*UserMemory, error) {
	if userID == "" {
		return nil, fmt.Errorf("save user memory: empty user id")
	}
	current := u.Load(ctx, userID)
	merged := mergeUserMemory(current, patch, false)
	merged.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encode user memory: %w", err)
	}
	if err := u.docs.Set(ctx, userPath(userID), data); err != nil {
		return nil, fmt.Errorf("persist user memory: %w", err)
	}
	return merged, nil
}

// MergeSession folds session-learned preferences into the user's long-term
// memory: session tone/detail win when present, session corrections append.
func (u *UserStore) MergeSession(ctx context.Context, userID string, snap SessionSnapshot) (*UserMemory, error) {
	if userID == "" {
		return nil, fmt.Errorf("merge session: empty user id")
	}
	patch := &UserMemory{
		Prefs: UserPrefs{
			Tone:   snap.Prefs.Tone,
			Detail: snap.Prefs.Detail,
		},
		Corrections: snap.Corrections,
	}

	current := u.Load(ctx, userID)
	merged := mergeUserMemory(current, patch, true)
	merged.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("encode user memory: %w", err)
	}
	if err := u.docs.Set(ctx, userPath(userID), data); err != nil {
		return nil, fmt.Errorf("persist user memory: %w", err)
	}
	return merged, nil
}

// mergeUserMemory merges patch over current. When concatArrays is set (the
// session-merge path) correction lists concatenate instead of overwriting.
func mergeUserMemory(current, patch *UserMemory, concatArrays bool) *UserMemory {
	merged := &UserMemory{
		Prefs: UserPrefs{
			Tone:   current.Prefs.Tone,
			Detail: current.Prefs.Detail,
		},
		Corrections:    append([]string(nil), current.Corrections...),
		LikedResponses: current.LikedResponses,
		UpdatedAt:      current.UpdatedAt,
	}
	if len(current.Prefs.PreferredProviders) > 0 {
		merged.Prefs.PreferredProviders = make(map[string]string, len(current.Prefs.PreferredProviders))
		for k, v := range current.Prefs.PreferredProviders {
			merged.Prefs.PreferredProviders[k] = v
		}
	}
	if patch == nil {
		return merged
	}

	if patch.Prefs.Tone != "" {
		merged.Prefs.Tone = patch.Prefs.Tone
	}
	if patch.Prefs.Detail != "" {
		merged.Prefs.Detail = patch.Prefs.Detail
	}
	for domain, provider := range patch.Prefs.PreferredProviders {
		if merged.Prefs.PreferredProviders == nil {
			merged.Prefs.PreferredProviders = make(map[string]string)
		}
		merged.Prefs.PreferredProviders[domain] = provider
	}

	if len(patch.Corrections) > 0 {
		if concatArrays {
			merged.Corrections = append(merged.Corrections, patch.Corrections...)
		} else {
			merged.Corrections = append([]string(nil), patch.Corrections...)
		}
	}
	if patch.LikedResponses != 0 {
		merged.LikedResponses = patch.LikedResponses
	}
	return merged
}
