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

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/poiesic/commandcore/core"
	"github.com/poiesic/commandcore/jobs"
	"github.com/poiesic/commandcore/retrieval"
)

// queryHandler serves the knowledge base query endpoint.
type queryHandler struct {
	pipeline *retrieval.Pipeline
	logger   *slog.Logger
}

type queryRequest struct {
	Query  string      `json:"query"`
	Domain core.Domain `json:"domain"`
}

// query answers a question against the knowledge base, returning the
// generated response with cited sources.
func (qh *queryHandler) query(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, jobs.CodeQueryError,
			"request body must be valid JSON")
		return
	}

	result, err := qh.pipeline.Answer(r.Context(), req.Query, req.Domain)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidDomain):
			writeError(w, http.StatusBadRequest, jobs.CodeInvalidDomain, err.Error())
		case errors.Is(err, retrieval.ErrEmptyQuery):
			writeError(w, http.StatusBadRequest, jobs.CodeQueryError, err.Error())
		default:
			qh.logger.Error("query failed", "domain", req.Domain, "error", err)
			writeError(w, http.StatusInternalServerError, jobs.CodeQueryError,
				"failed to process query")
		}
		return
	}

	writeJSON(w, http.StatusOK, result)
}
