// Copyright 2026 The pgfleet Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package distobject

import (
	"context"
	"sync"

	"github.com/pgfleet/pgfleet/pkg/catalog"
)

type memKey struct {
	classID    catalog.ClassID
	identifier string
}

// MemStore is an in-memory Store used by tests and dry runs. Reads observe
// writes immediately, matching the same-transaction visibility the pg-backed
// store provides.
type MemStore struct {
	mu      sync.Mutex
	records map[memKey]catalog.ObjectID
}

var _ Store = (*MemStore)(nil)

// NewMemStore returns an empty MemStore.
func NewMemStore() *MemStore {
	return &MemStore{records: make(map[memKey]catalog.ObjectID)}
}

// Insert implements Store.
func (s *MemStore) Insert(
	_ context.Context, classID catalog.ClassID, objectID catalog.ObjectID, identifier string,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := memKey{classID: classID, identifier: identifier}
	if _, ok := s.records[key]; !ok {
		s.records[key] = objectID
	}
	return nil
}

// Exists implements Store.
func (s *MemStore) Exists(
	_ context.Context, classID catalog.ClassID, identifier string,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[memKey{classID: classID, identifier: identifier}]
	return ok, nil
}

// Delete implements Store.
func (s *MemStore) Delete(
	_ context.Context, classID catalog.ClassID, identifier string,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, memKey{classID: classID, identifier: identifier})
	return nil
}

// Len returns the number of recorded objects.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
