// SPDX-License-Identifier: Apache-2.0

// Package canvas implements a client for the Canvas LMS REST API. It covers
// the read operations used for grading (courses, assignments, rosters,
// submissions) and the single write operation: posting a submission grade.
package canvas

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"edutools/internal/config"
)

// linkNextRe extracts the "next" URL from the Link header. Canvas returns:
// <https://...?page=2&per_page=100>; rel="next", ...
var linkNextRe = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

// perPage is the page size requested on the first call of a paginated listing.
const perPage = "100"

// Client talks to a single Canvas instance with a fixed bearer token.
type Client struct {
	endpoint string
	token    string
	http     *http.Client
}

// APIError is returned for non-2xx Canvas responses.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("canvas API error %d: %s", e.StatusCode, e.Body)
}

// NewClient builds a Client from the canvas section of the application config.
func NewClient(cfg config.CanvasConfig) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("canvas token not set: add it to the config file [canvas] section or set CANVAS_TOKEN")
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = config.DefaultCanvasEndpoint
	}

	return &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		token:    cfg.Token,
		http:     &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// Course is a Canvas course with its enrollment term.
type Course struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	CourseCode    string `json:"course_code"`
	WorkflowState string `json:"workflow_state"`
	Term          *Term  `json:"term,omitempty"`
}

// Term is a Canvas enrollment term.
type Term struct {
	ID    int64      `json:"id"`
	Name  string     `json:"name"`
	EndAt *time.Time `json:"end_at,omitempty"`
}

// Assignment is a Canvas assignment.
type Assignment struct {
	ID             int64   `json:"id"`
	Name           string  `json:"name"`
	PointsPossible float64 `json:"points_possible"`
}

// User is a Canvas user as returned from a course roster listing.
type User struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	LoginID string `json:"login_id"`
}

// Submission is a student's submission for one assignment.
type Submission struct {
	ID            int64    `json:"id"`
	UserID        int64    `json:"user_id"`
	Grade         string   `json:"grade"`
	Score         *float64 `json:"score"`
	WorkflowState string   `json:"workflow_state"`
}

// do performs a single request and returns the response body and Link header.
func (c *Client) do(ctx context.Context, method, rawURL string, params url.Values, form url.Values) ([]byte, string, error) {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to build canvas request: %w", err)
	}
	if params != nil {
		req.URL.RawQuery = params.Encode()
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("canvas request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read canvas response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
	}

	return data, resp.Header.Get("Link"), nil
}

// getPaginated fetches every page of a paginated listing. Query parameters
// are sent on the first request only; Canvas bakes them into the next URLs.
func getPaginated[T any](ctx context.Context, c *Client, path string, params url.Values) ([]T, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("per_page", perPage)

	next := c.endpoint + path
	var all []T

	for next != "" {
		data, link, err := c.do(ctx, http.MethodGet, next, params, nil)
		if err != nil {
			return nil, err
		}

		var page []T
		if err := json.Unmarshal(data, &page); err != nil {
			return nil, fmt.Errorf("failed to decode canvas response: %w", err)
		}
		all = append(all, page...)

		params = nil
		next = ""
		if match := linkNextRe.FindStringSubmatch(link); match != nil {
			next = match[1]
		}
	}

	return all, nil
}

// getSingle fetches a single resource (no pagination).
func getSingle[T any](ctx context.Context, c *Client, path string, params url.Values) (T, error) {
	var out T
	data, _, err := c.do(ctx, http.MethodGet, c.endpoint+path, params, nil)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("failed to decode canvas response: %w", err)
	}
	return out, nil
}

// Courses lists courses where the caller is enrolled as a teacher. Unless
// includeAll is set, the listing is filtered to available courses whose
// enrollment term has not yet ended.
func (c *Client) Courses(ctx context.Context, includeAll bool) ([]Course, error) {
	params := url.Values{}
	params.Set("enrollment_type", "teacher")
	params.Add("include[]", "term")
	if !includeAll {
		params.Add("state[]", "available")
	}

	courses, err := getPaginated[Course](ctx, c, "/api/v1/courses", params)
	if err != nil {
		return nil, err
	}
	if includeAll {
		return courses, nil
	}

	now := time.Now()
	active := courses[:0]
	for _, course := range courses {
		if course.WorkflowState != "available" {
			continue
		}
		if course.Term != nil && course.Term.EndAt != nil && course.Term.EndAt.Before(now) {
			continue
		}
		active = append(active, course)
	}
	return active, nil
}

// Assignments lists all assignments for a course.
func (c *Client) Assignments(ctx context.Context, courseID string) ([]Assignment, error) {
	return getPaginated[Assignment](ctx, c, fmt.Sprintf("/api/v1/courses/%s/assignments", courseID), nil)
}

// Assignment fetches a single assignment.
func (c *Client) Assignment(ctx context.Context, courseID, assignmentID string) (Assignment, error) {
	return getSingle[Assignment](ctx, c, fmt.Sprintf("/api/v1/courses/%s/assignments/%s", courseID, assignmentID), nil)
}

// Students lists users enrolled in a course as students.
func (c *Client) Students(ctx context.Context, courseID string) ([]User, error) {
	params := url.Values{}
	params.Add("enrollment_type[]", "student")
	return getPaginated[User](ctx, c, fmt.Sprintf("/api/v1/courses/%s/users", courseID), params)
}

// ActiveStudents lists actively enrolled students. Used for roster joins so
// dropped students don't receive grade updates.
func (c *Client) ActiveStudents(ctx context.Context, courseID string) ([]User, error) {
	params := url.Values{}
	params.Add("enrollment_type[]", "student")
	params.Add("enrollment_state[]", "active")
	return getPaginated[User](ctx, c, fmt.Sprintf("/api/v1/courses/%s/users", courseID), params)
}

// Submissions lists all submissions for an assignment.
func (c *Client) Submissions(ctx context.Context, courseID, assignmentID string) ([]Submission, error) {
	return getPaginated[Submission](ctx, c, fmt.Sprintf("/api/v1/courses/%s/assignments/%s/submissions", courseID, assignmentID), nil)
}

// GradeSubmission posts a grade (points, percentage or letter, per course
// settings) and an optional comment for one student's submission.
func (c *Client) GradeSubmission(ctx context.Context, courseID, assignmentID string, userID int64, grade, comment string) error {
	form := url.Values{}
	form.Set("submission[posted_grade]", grade)
	if comment != "" {
		form.Set("comment[text_comment]", comment)
	}

	path := fmt.Sprintf("%s/api/v1/courses/%s/assignments/%s/submissions/%d", c.endpoint, courseID, assignmentID, userID)
	_, _, err := c.do(ctx, http.MethodPut, path, nil, form)
	return err
}
