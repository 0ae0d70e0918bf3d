// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package badger

import (
	"context"

	"github.com/poiesic/vecfill/core"
)

// NewMemoryStore creates an in-memory backend seeded with records and
// returns a connector on it.
// Caller must close the backend when done.
func NewMemoryStore(ctx context.Context, records ...*core.Record) (*Connector, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, err
	}

	if len(records) > 0 {
		if err := NewStore(backend).AddRecords(ctx, records...); err != nil {
			backend.Close()
			return nil, nil, err
		}
	}

	return NewConnector(backend), backend, nil
}
