package tune

import "github.com/jmylchreest/aampcore/internal/bufferctl"

// TrackAttributes describes one available track's selectable
// attributes, as carried in a manifest/playlist.
type TrackAttributes struct {
	Languages     []string
	Rendition     string
	Codec         string
	Name          string
	Label         string
	Accessibility string
	// DisabledInManifest marks a track the manifest does not currently
	// offer for selection; relevant only to the AAMP-TSB reload rule.
	DisabledInManifest bool
}

// PreferredTrackAttributes is the caller's current track preference,
// settable via flat strings or parsed from the §6.1 JSON object; either
// way, array-valued attributes preserve caller-supplied order (used for
// priority when more than one track matches).
type PreferredTrackAttributes struct {
	Languages     []string
	Rendition     string
	Codec         string
	Name          string
	Label         string
	Accessibility string
}

// matches reports whether t satisfies every non-empty attribute p
// specifies. An attribute left unset in p never excludes a track.
func (p PreferredTrackAttributes) matches(t TrackAttributes) bool {
	if p.Rendition != "" && p.Rendition != t.Rendition {
		return false
	}
	if p.Codec != "" && p.Codec != t.Codec {
		return false
	}
	if p.Name != "" && p.Name != t.Name {
		return false
	}
	if p.Label != "" && p.Label != t.Label {
		return false
	}
	if p.Accessibility != "" && p.Accessibility != t.Accessibility {
		return false
	}
	if len(p.Languages) > 0 && !containsAny(p.Languages, t.Languages) {
		return false
	}
	return true
}

func containsAny(want, have []string) bool {
	for _, w := range want {
		for _, h := range have {
			if w == h {
				return true
			}
		}
	}
	return false
}

// SetAvailableTracks records the manifest-advertised tracks the next
// SetPreferredTrack evaluates against.
func (s *Session) SetAvailableTracks(tracks []TrackAttributes) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.availableTracks = tracks
}

// SetPreferredTrack updates the caller's track preference. If this
// newly makes at least one available track match that did not
// previously match, a retune is scheduled. Under AAMP-TSB, if the
// newly-matching track was previously disabled in the manifest, the TSB
// session URL is reloaded with &reloadTSB=true instead of reusing the
// stored manifest URL; and if the session is actively serving from the
// TSB store, that store is reinitialized so the new selection can be
// served from this point forward.
func (s *Session) SetPreferredTrack(next PreferredTrackAttributes) {
	s.mu.Lock()
	prev := s.preferred
	s.preferred = next
	tracks := s.availableTracks
	tsbEnabled := s.tsbEnabled
	tsbURL := s.tsbSessionRequestURL
	manifestURL := s.manifestURL
	s.mu.Unlock()

	var anyNewlyMatched, newlyMatchedDisabled bool
	for _, t := range tracks {
		nowMatches := next.matches(t)
		previouslyMatched := prev.matches(t)
		if nowMatches && !previouslyMatched {
			anyNewlyMatched = true
			if t.DisabledInManifest {
				newlyMatchedDisabled = true
			}
		}
	}
	if !anyNewlyMatched {
		return
	}

	s.mu.Lock()
	if tsbEnabled && newlyMatchedDisabled {
		s.url = tsbURL + "&reloadTSB=true"
	} else {
		s.url = manifestURL
	}
	s.mu.Unlock()

	s.OnPreferredTrackChangeInTSBMode()
	s.ScheduleRetune(ErrorTypeGeneric, bufferctl.MediaTypeVideo)
}
