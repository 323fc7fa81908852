package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Team is a league team known locally
type Team struct {
	ID   int64
	Name string
	Tag  string
}

// Platform identifies a communication backend
type Platform string

const (
	PlatformTelegram Platform = "telegram"
	PlatformDiscord  Platform = "discord"
	PlatformFeishu   Platform = "feishu"
)

// ParsePlatform parses a platform name
func ParsePlatform(s string) (Platform, error) {
	switch p := Platform(strings.ToLower(strings.TrimSpace(s))); p {
	case PlatformTelegram, PlatformDiscord, PlatformFeishu:
		return p, nil
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// EventKindSet is a set of event kinds
type EventKindSet map[EventKind]struct{}

// NewEventKindSet creates a set from the given kinds
func NewEventKindSet(kinds ...EventKind) EventKindSet {
	set := make(EventKindSet, len(kinds))
	for _, k := range kinds {
		set[k] = struct{}{}
	}
	return set
}

// ParseEventKindSet parses a comma separated list of event kinds
func ParseEventKindSet(s string) (EventKindSet, error) {
	set := EventKindSet{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		kind := EventKind(part)
		if !kind.Valid() {
			return nil, fmt.Errorf("unknown event kind %q", part)
		}
		set[kind] = struct{}{}
	}
	return set, nil
}

// Has checks if the set contains kind
func (s EventKindSet) Has(kind EventKind) bool {
	_, ok := s[kind]
	return ok
}

// Kinds returns the kinds sorted by name
func (s EventKindSet) Kinds() []EventKind {
	kinds := make([]EventKind, 0, len(s))
	for k := range s {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// String returns the comma separated form used for storage
func (s EventKindSet) String() string {
	kinds := s.Kinds()
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, ",")
}

// TeamSubscription binds one channel to a team
type TeamSubscription struct {
	TeamID       int64
	ChannelID    string
	Platform     Platform
	EnabledKinds EventKindSet
	PinKinds     EventKindSet // kinds with pin preference set
	Locale       string       // empty uses the default locale
}

// Wants checks if the subscription opted into kind
func (s *TeamSubscription) Wants(kind EventKind) bool {
	return s.EnabledKinds.Has(kind)
}

// WantsPin returns the pin preference for kind
func (s *TeamSubscription) WantsPin(kind EventKind) bool {
	return s.PinKinds.Has(kind)
}
