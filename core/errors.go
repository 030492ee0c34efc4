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
	// ErrInvalidDomain indicates a domain outside the closed set.
	ErrInvalidDomain = errors.New("invalid domain")

	// ErrInvalidSourceInfo indicates a SourceInfo that failed validation.
	ErrInvalidSourceInfo = errors.New("invalid source info")

	// ErrUnsupportedFileType indicates a file extension outside the supported set.
	ErrUnsupportedFileType = errors.New("unsupported file type")

	// ErrFileTooLarge indicates an upload above the size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrEmptyTitle indicates the source info Title field is empty.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrEmptyAuthor indicates the source info Author field is empty.
	ErrEmptyAuthor = errors.New("author cannot be empty")

	// ErrEmptyPublicationDate indicates the source info PublicationDate field is empty.
	ErrEmptyPublicationDate = errors.New("publication date cannot be empty")
)
