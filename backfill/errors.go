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


package backfill

import (
	"errors"
	"fmt"

	"github.com/poiesic/vecfill/core"
)

var (
	// ErrEmbedderRequired is returned when a worker is created without an embedding client.
	ErrEmbedderRequired = errors.New("embedding client required")

	// ErrWorkerRequired is returned when a fleet is created without a worker.
	ErrWorkerRequired = errors.New("worker required")
)

// RowError reports the failure of a single row. It never aborts a run.
type RowError struct {
	ID  core.ID
	Err error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("row %s: %v", e.ID, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
