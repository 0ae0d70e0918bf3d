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


// Package search answers free-text similarity queries against the embedded
// table.
//
// A query is embedded with the same retrying client the backfill uses, the
// store returns its nearest candidates by L2 distance, and the candidates
// are reduced to one record per subject before being ordered for display:
//
//	hits, err := searcher.Search(ctx, "gas pipeline outage")
//
// Results are ordered by subject, then most recent first, not by distance.
// Deduplication keeps the most recent record of a subject even when an older
// one was closer to the query.
package search
