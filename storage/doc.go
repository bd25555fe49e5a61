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


// Package storage provides the storage abstraction layer for graphsearch.
//
// This package defines repository interfaces for the pages and blocks of a
// note graph, together with the binary codec used to persist them. Storage
// backends (see storage/badger) implement the interfaces.
//
// # Architecture
//
// The storage layer follows the Repository pattern:
//   - PageRepository: pages with uid, title and title-prefix lookups
//   - BlockRepository: blocks with uid, page and tag lookups
//
// Use in tests with in-memory storage:
//
//	pages, blocks, backend, err := badger.NewMemoryRepositories()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
//
// # Context Support
//
// All repository methods accept context.Context for cancellation
// and timeout support.
package storage
