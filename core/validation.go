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

import (
	"fmt"
	"time"
)

// clockSkew tolerates small differences between the exporting machine and this one.
const clockSkew = 5 * time.Minute

func ValidatePage(page *Page) error {
	if page == nil {
		return fmt.Errorf("%w: page is nil", ErrInvalidPage)
	}

	if page.Title == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPage, ErrEmptyTitle)
	}

	if page.UID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidPage, ErrEmptyUID)
	}

	if !IsValidTimestamp(page.CreatedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidPage, ErrInvalidTimestamp)
	}

	return nil
}

func ValidateBlock(block *Block) error {
	if block == nil {
		return fmt.Errorf("%w: block is nil", ErrInvalidBlock)
	}

	if block.UID == "" {
		return fmt.Errorf("%w: %w", ErrInvalidBlock, ErrEmptyUID)
	}

	if block.PageId == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidBlock, ErrMissingPage)
	}

	if !IsValidTimestamp(block.CreatedAt) {
		return fmt.Errorf("%w: %w", ErrInvalidBlock, ErrInvalidTimestamp)
	}

	return nil
}

func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now().Add(clockSkew))
}
