package handlers

import (
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"taskManager/internal/models/task"
	"time"

	"github.com/go-chi/chi/v5"
)

func checkContentType(r *http.Request, target string) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	return mediaType == target
}

func parseID(r *http.Request) (int64, error) {
	idParam := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id must be an integer, got %q", idParam)
	}
	return id, nil
}

// parseQueryParameters binds the query string onto QueryParameters. Keys match case-insensitively.
// The returned map lists malformed values by parameter.
func parseQueryParameters(values url.Values) (task.QueryParameters, map[string][]string) {
	var params task.QueryParameters
	errs := map[string][]string{}

	for key, vals := range values {
		if len(vals) == 0 {
			continue
		}
		value := strings.TrimSpace(vals[0])
		if value == "" {
			continue
		}

		switch strings.ToLower(key) {
		case "pagenumber":
			params.PageNumber = parseInt(value, "pageNumber", errs)
		case "pagesize":
			params.PageSize = parseInt(value, "pageSize", errs)
		case "sortby":
			params.SortBy = value
		case "sortdirection":
			params.SortDirection = value
		case "title":
			params.Title = value
		case "priority":
			params.Priority = value
		case "category":
			params.Category = value
		case "completed":
			b, err := strconv.ParseBool(value)
			if err != nil {
				errs["completed"] = append(errs["completed"], fmt.Sprintf("%q is not a boolean", value))
				continue
			}
			params.Completed = &b
		case "userid":
			params.UserID = value
		case "assignedto":
			params.AssignedTo = value
		case "duedatefrom":
			params.DueDateFrom = parseTime(value, "dueDateFrom", errs)
		case "duedateto":
			params.DueDateTo = parseTime(value, "dueDateTo", errs)
		case "tag":
			params.Tag = value
		}
	}

	if len(errs) == 0 {
		return params, nil
	}
	return params, errs
}

func parseInt(value, field string, errs map[string][]string) int {
	n, err := strconv.Atoi(value)
	if err != nil {
		errs[field] = append(errs[field], fmt.Sprintf("%q is not an integer", value))
		return 0
	}
	return n
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"}

func parseTime(value, field string, errs map[string][]string) *time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	errs[field] = append(errs[field], fmt.Sprintf("%q is not a valid date", value))
	return nil
}
