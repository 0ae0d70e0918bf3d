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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidRecord indicates a Record failed validation.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrEmptyID indicates the record key is empty.
	ErrEmptyID = errors.New("record id cannot be empty")

	// ErrInvalidVector indicates an embedding vector failed validation.
	ErrInvalidVector = errors.New("invalid vector")

	// ErrDimensionMismatch indicates a vector whose length differs from the
	// dimension already established for the table.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrInvalidShard indicates an instance index outside [0, total).
	ErrInvalidShard = errors.New("invalid shard")

	// ErrInvalidPageSize indicates a non-positive page size.
	ErrInvalidPageSize = errors.New("page size must be greater than 0")

	// ErrUnknownPartitionStrategy indicates an unrecognized partition strategy name.
	ErrUnknownPartitionStrategy = errors.New("unknown partition strategy")
)
