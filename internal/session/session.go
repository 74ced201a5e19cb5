// Package session hosts the live composition sessions. Each session owns one
// draft, the preview handles of its media and the pending tag input, and
// serializes every operation on them.
package session

import (
	"errors"
	"sync"
	"time"

	"postdeck/internal/composer"
	"postdeck/internal/media"
	"postdeck/internal/models"
)

// ErrEnded is returned by operations on a session that has been ended.
var ErrEnded = errors.New("session ended")

// State is what a client sees after every session operation.
type State struct {
	SessionID string                     `json:"session_id"`
	Draft     composer.Snapshot          `json:"draft"`
	TagInput  string                     `json:"tag_input"`
	Previews  []composer.PlatformPreview `json:"previews"`
	Handles   int                        `json:"preview_handles"`
}

// Session is one composition session.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu         sync.Mutex
	draft      *composer.Draft
	handles    *media.HandleCache
	tagInput   string
	lastActive time.Time
	ended      bool

	now      func() time.Time
	onChange func(State)
}

func newSession(id string, handles *media.HandleCache, now func() time.Time, onChange func(State)) *Session {
	t := now()
	return &Session{
		ID:         id,
		CreatedAt:  t,
		draft:      composer.NewDraft(),
		handles:    handles,
		lastActive: t,
		now:        now,
		onChange:   onChange,
	}
}

// mutate runs fn under the session lock and reports the resulting state to the
// change hook after the lock is released.
func (s *Session) mutate(fn func(d *composer.Draft)) (State, error) {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return State{}, ErrEnded
	}
	fn(s.draft)
	s.lastActive = s.now()
	st := s.stateLocked()
	s.mu.Unlock()

	if s.onChange != nil {
		s.onChange(st)
	}
	return st, nil
}

func (s *Session) stateLocked() State {
	return State{
		SessionID: s.ID,
		Draft:     s.draft.Snapshot(),
		TagInput:  s.tagInput,
		Previews:  s.draft.Preview(s.handles.URL),
		Handles:   s.handles.Len(),
	}
}

// State returns the current state without counting as activity.
func (s *Session) State() (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return State{}, ErrEnded
	}
	return s.stateLocked(), nil
}

// Snapshot returns a copy of the draft.
func (s *Session) Snapshot() (composer.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return composer.Snapshot{}, ErrEnded
	}
	return s.draft.Snapshot(), nil
}

// Preview projects the draft. Handles are already acquired, so calling it any
// number of times creates none.
func (s *Session) Preview() ([]composer.PlatformPreview, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return nil, ErrEnded
	}
	return s.draft.Preview(s.handles.URL), nil
}

// TogglePlatform flips the selection of p.
func (s *Session) TogglePlatform(p models.Platform) (State, error) {
	return s.mutate(func(d *composer.Draft) { d.TogglePlatform(p) })
}

// SetPostType switches the post type.
func (s *Session) SetPostType(t models.PostType) (State, error) {
	return s.mutate(func(d *composer.Draft) { d.SetPostType(t) })
}

// SetBody replaces the caption.
func (s *Session) SetBody(text string) (State, error) {
	return s.mutate(func(d *composer.Draft) { d.SetBody(text) })
}

// SetTitle replaces the title.
func (s *Session) SetTitle(text string) (State, error) {
	return s.mutate(func(d *composer.Draft) { d.SetTitle(text) })
}

// SetDescription replaces the description.
func (s *Session) SetDescription(text string) (State, error) {
	return s.mutate(func(d *composer.Draft) { d.SetDescription(text) })
}

// AddMedia stores each accepted upload, acquires its preview handle and
// appends it to the draft in arrival order.
func (s *Session) AddMedia(accepted []media.Accepted) (State, error) {
	return s.mutate(func(d *composer.Draft) {
		items := make([]models.MediaItem, 0, len(accepted))
		for _, a := range accepted {
			s.handles.Put(a.Item, a.Content)
			items = append(items, a.Item)
		}
		d.AddMedia(items...)
	})
}

// RemoveMedia drops the item at index and releases its handle.
func (s *Session) RemoveMedia(index int) (State, error) {
	return s.mutate(func(d *composer.Draft) {
		if removed, ok := d.RemoveMedia(index); ok {
			s.handles.Release(removed.ID)
		}
	})
}

// SetThumbnail installs an image as the thumbnail and releases the handle of
// the one it replaces. Non-image uploads are discarded without being stored.
func (s *Session) SetThumbnail(a media.Accepted) (State, error) {
	return s.mutate(func(d *composer.Draft) {
		if !a.Item.IsImage() {
			return
		}
		s.handles.Put(a.Item, a.Content)
		prev, ok := d.SetThumbnail(a.Item)
		if !ok {
			s.handles.Release(a.Item.ID)
			return
		}
		if prev != nil {
			s.handles.Release(prev.ID)
		}
	})
}

// ClearThumbnail unsets the thumbnail and releases its handle.
func (s *Session) ClearThumbnail() (State, error) {
	return s.mutate(func(d *composer.Draft) {
		if prev := d.ClearThumbnail(); prev != nil {
			s.handles.Release(prev.ID)
		}
	})
}

// SetTagInput records the pending tag text.
func (s *Session) SetTagInput(text string) (State, error) {
	return s.mutate(func(*composer.Draft) { s.tagInput = text })
}

// CommitTag adds the pending tag text and clears the input whether or not a
// tag was added.
func (s *Session) CommitTag() (State, error) {
	return s.mutate(func(d *composer.Draft) {
		d.AddTag(s.tagInput)
		s.tagInput = ""
	})
}

// AddTag adds text as a tag.
func (s *Session) AddTag(text string) (State, error) {
	return s.mutate(func(d *composer.Draft) { d.AddTag(text) })
}

// RemoveTag removes an exact tag.
func (s *Session) RemoveTag(text string) (State, error) {
	return s.mutate(func(d *composer.Draft) { d.RemoveTag(text) })
}

// LastActive returns the time of the last operation.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Handles returns the number of preview handles the session holds.
func (s *Session) Handles() int {
	return s.handles.Len()
}

// end discards the draft and releases every handle. It reports false when
// the session had already ended.
func (s *Session) end() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return false
	}
	s.ended = true
	s.handles.ReleaseAll()
	s.draft = composer.NewDraft()
	s.tagInput = ""
	return true
}
