// Package clinicapi contains the HTTP client used by the desk tools to talk to the
// clinic API. All requests go through a single authenticated client so token handling
// and error surfacing behave the same everywhere.
package clinicapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"clinic-desk/internal/configs"
	"clinic-desk/internal/queueing"
	"clinic-desk/internal/referral"
)

const requestTimeout = 10 * time.Second

// Client is the authenticated clinic API client.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
}

// NewClient creates a new clinic API client based on the given configurations.
func NewClient(config configs.Config, tokens TokenSource) *Client {
	return &Client{
		baseURL:    strings.TrimRight(config.APIBaseURL(), "/"),
		tokens:     tokens,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// do performs an authenticated request and decodes the JSON response into out.
// When no token is available the request is not sent at all.
func (c *Client) do(ctx context.Context, method string, path string, body interface{}, out interface{}) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("could not encode the request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("could not create the request: %w", err)
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not reach the clinic API: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode == http.StatusUnauthorized {
		return ErrNotAuthenticated
	}
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err = json.NewDecoder(resp.Body).Decode(apiErr); err != nil || apiErr.Detail == "" {
			apiErr.Detail = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("could not decode the response: %w", err)
	}
	return nil
}

// ListReferrals returns the referrals awaiting scheduling.
func (c *Client) ListReferrals(ctx context.Context) ([]*referral.Referral, error) {
	referrals := make([]*referral.Referral, 0)
	if err := c.do(ctx, http.MethodGet, "/appointment-referral-list/", nil, &referrals); err != nil {
		return nil, err
	}
	return referrals, nil
}

// GetDoctorSchedule returns the doctor's summary and availability.
func (c *Client) GetDoctorSchedule(ctx context.Context, doctorID int64) (*referral.DoctorSchedule, error) {
	schedule := new(referral.DoctorSchedule)
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/appointment/doctor-schedule/%d", doctorID), nil, schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

// ScheduleAppointment books the requested slot and returns the updated referral.
func (c *Client) ScheduleAppointment(ctx context.Context, request referral.AppointmentRequest) (*referral.Referral, error) {
	updated := new(referral.Referral)
	if err := c.do(ctx, http.MethodPost, "/appointment/schedule-appointment/", request, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// GetRegistrationSnapshot returns the current registration queue board state.
func (c *Client) GetRegistrationSnapshot(ctx context.Context) (*queueing.Snapshot, error) {
	snapshot := new(queueing.Snapshot)
	if err := c.do(ctx, http.MethodGet, "/queueing/registration_queueing/", nil, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// RoutePatient routes the given queue entry and returns it updated.
func (c *Client) RoutePatient(ctx context.Context, request queueing.RouteRequest) (*queueing.QueueEntry, error) {
	entry := new(queueing.QueueEntry)
	if err := c.do(ctx, http.MethodPost, "/patient/update-status/", request, entry); err != nil {
		return nil, err
	}
	return entry, nil
}
