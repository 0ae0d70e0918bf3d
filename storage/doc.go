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


// Package storage provides the storage abstraction layer for vecfill.
//
// This package defines the Store interface the backfill and the similarity
// query run against, and the Connector that opens one Store per invocation.
// Two backends implement it:
//
//   - storage/postgres: the production table (PostgreSQL with pgvector)
//   - storage/badger: an embedded store for local runs and tests
//
// # Connection Scope
//
// A Store is acquired at the start of a worker run or query and released on
// every exit path:
//
//	store, err := connector.Connect(ctx)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
// # Errors
//
// Failed operations are reported as *StoreError naming the operation. Use
// errors.Is with ErrNotFound or ErrStoreClosed to classify them.
//
// # Context Support
//
// All store methods accept context.Context for cancellation
// and timeout support.
package storage
