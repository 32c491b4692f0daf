/*
 * Copyright (c) 2024 shenjunzheng@gmail.com
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package czdb

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by Open/FromBytes. A query (Search/SearchMany)
// never returns one of these: a corrupt record or out-of-bounds pointer
// encountered mid-query is collapsed to a miss (nil/false) instead, since
// it does not invalidate the rest of the database.
var (
	// ErrDatabaseFileRead covers short reads, missing files and permission
	// errors while opening a database. The returned error wraps this
	// sentinel with %w, so errors.Is matches it; the underlying cause is
	// only formatted into the message and is not reachable through
	// errors.Unwrap or errors.As.
	ErrDatabaseFileRead = errors.New("czdb: failed to read the database file")

	// ErrKeyDecoding is returned when the supplied key is not valid
	// base64.
	ErrKeyDecoding = errors.New("czdb: failed to decode key as base64")

	// ErrDecryptionFailed is returned when the hyper header's AES
	// ciphertext fails to decrypt or unpad.
	ErrDecryptionFailed = errors.New("czdb: decryption failed")

	// ErrInvalidClientID is returned when the decrypted tag's client id
	// does not match the hyper header's plaintext client id field.
	ErrInvalidClientID = errors.New("czdb: invalid client id")

	// ErrDatabaseExpired is returned when the embedded expiration date
	// is earlier than the current date.
	ErrDatabaseExpired = errors.New("czdb: database file has expired")

	// ErrDatabaseFileCorrupted is returned when any structural check on
	// the file layout fails: a size mismatch, a misaligned index, a
	// non-decimal date field, or an out-of-bounds pointer in metadata.
	ErrDatabaseFileCorrupted = errors.New("czdb: database file is corrupted or contains invalid data")
)

// InvalidAESKeyLengthError is returned when a base64-decoded key is not
// exactly 16 bytes (AES-128 requires a 16 byte key).
type InvalidAESKeyLengthError struct {
	N int
}

func (e *InvalidAESKeyLengthError) Error() string {
	return fmt.Sprintf("czdb: invalid AES key length: %d", e.N)
}

func wrapReadErr(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrDatabaseFileRead, err)
}
