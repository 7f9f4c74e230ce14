package signup

import "sync"

// FormState is the record backing the signup form
type FormState struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	RememberMe      bool   `json:"rememberMe"`
	FeedbackMessage string `json:"feedbackMessage"`
}

// IsEmpty reports whether all input fields hold their defaults.
// FeedbackMessage is not an input field and is ignored.
func (f FormState) IsEmpty() bool {
	return f.Name == "" && f.Email == "" && f.Password == "" && !f.RememberMe
}

// Observer receives a snapshot after every transition
type Observer func(state FormState)

// Store owns a single FormState. Transitions are synchronous and never fail.
type Store struct {
	mu        sync.RWMutex
	state     FormState
	observers []observerEntry
	nextID    int
	closed    bool
}

type observerEntry struct {
	id int
	fn Observer
}

// NewStore returns a Store with empty defaults
func NewStore() *Store {
	return &Store{}
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() FormState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Store) SetName(name string) {
	s.update(func(st *FormState) { st.Name = name })
}

func (s *Store) SetEmail(email string) {
	s.update(func(st *FormState) { st.Email = email })
}

func (s *Store) SetPassword(password string) {
	s.update(func(st *FormState) { st.Password = password })
}

func (s *Store) SetRememberMe(rememberMe bool) {
	s.update(func(st *FormState) { st.RememberMe = rememberMe })
}

// ResetForm clears all four input fields together. FeedbackMessage is kept.
func (s *Store) ResetForm() {
	s.update(func(st *FormState) {
		st.Name = ""
		st.Email = ""
		st.Password = ""
		st.RememberMe = false
	})
}

func (s *Store) SetFeedbackMessage(msg string) {
	s.update(func(st *FormState) { st.FeedbackMessage = msg })
}

func (s *Store) ClearFeedbackMessage() {
	s.update(func(st *FormState) { st.FeedbackMessage = "" })
}

// Subscribe registers fn and returns a function that removes it.
// Observers run outside the store lock, in registration order.
func (s *Store) Subscribe(fn Observer) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return func() {}
	}

	s.nextID++
	id := s.nextID
	s.observers = append(s.observers, observerEntry{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(id) })
	}
}

// Close drops all observers. The state stays readable and writable.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.observers = nil
}

func (s *Store) remove(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, entry := range s.observers {
		if entry.id == id {
			s.observers = append(s.observers[:i:i], s.observers[i+1:]...)
			return
		}
	}
}

func (s *Store) update(fn func(st *FormState)) {
	s.mu.Lock()
	fn(&s.state)
	snapshot := s.state
	observers := make([]observerEntry, len(s.observers))
	copy(observers, s.observers)
	s.mu.Unlock()

	for _, entry := range observers {
		entry.fn(snapshot)
	}
}
