package trust

// TieredStore layers a session tier over a persistent tier.
//
// Lookups consult the session tier first; an entry recorded there
// shadows any persistent entry for the same endpoint until the process
// exits. "Trust once" decisions land in the session tier, "trust and
// save" decisions land in the persistent tier.
type TieredStore struct {
	session    Store
	persistent Store
}

// NewTieredStore creates a tiered store over the given tiers.
// Passing nil for either tier substitutes an empty in-memory store.
func NewTieredStore(session, persistent Store) *TieredStore {
	if session == nil {
		session = NewMemoryStore()
	}
	if persistent == nil {
		persistent = NewMemoryStore()
	}
	return &TieredStore{session: session, persistent: persistent}
}

// Lookup returns the entry for an endpoint, session tier first.
func (s *TieredStore) Lookup(hostname string, port uint16) (*Entry, error) {
	entry, err := s.session.Lookup(hostname, port)
	if err == nil {
		return entry, nil
	}
	if err != ErrEntryNotFound {
		return nil, err
	}
	return s.persistent.Lookup(hostname, port)
}

// PutSession records a "trust once" entry in the session tier.
func (s *TieredStore) PutSession(entry Entry) error {
	return s.session.Put(entry)
}

// PutPersistent records a "trust and save" entry in the persistent tier
// and saves the tier to its backing storage.
func (s *TieredStore) PutPersistent(entry Entry) error {
	if err := s.persistent.Put(entry); err != nil {
		return err
	}
	return s.persistent.Save()
}

// Remove deletes the endpoint's entry from both tiers.
// Returns ErrEntryNotFound only if neither tier had an entry.
func (s *TieredStore) Remove(hostname string, port uint16) error {
	sessErr := s.session.Remove(hostname, port)
	persErr := s.persistent.Remove(hostname, port)
	if persErr == nil {
		if err := s.persistent.Save(); err != nil {
			return err
		}
	}
	if sessErr == ErrEntryNotFound && persErr == ErrEntryNotFound {
		return ErrEntryNotFound
	}
	return nil
}

// Persistent returns the persistent tier, for listing saved hosts.
func (s *TieredStore) Persistent() Store { return s.persistent }

// Compile-time interface satisfaction check.
var _ Lookup = (*TieredStore)(nil)
