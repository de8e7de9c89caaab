package authsdk

import (
	"context"
	"errors"
	"net/http"
	"net/url"
)

// JoinWaitlist adds an email to the waitlist.
func (c *SDKClient) JoinWaitlist(ctx context.Context, req JoinWaitlistRequest) (*WaitlistEntry, error) {
	var out JoinWaitlistResponse
	if err := c.call(ctx, http.MethodPost, "/api/waitlist", req, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// LookupWaitlist returns the waitlist entry for email.
func (c *SDKClient) LookupWaitlist(ctx context.Context, email string) (*WaitlistEntry, error) {
	var out WaitlistResponse
	path := "/api/waitlist?email=" + url.QueryEscape(email)
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if out.Data.Entry == nil {
		return nil, errors.New("authsdk: waitlist response carried no entry")
	}
	return out.Data.Entry, nil
}

// WaitlistTotal returns the number of entries on the waitlist.
func (c *SDKClient) WaitlistTotal(ctx context.Context) (int64, error) {
	var out WaitlistResponse
	if err := c.call(ctx, http.MethodGet, "/api/waitlist/stats", nil, &out); err != nil {
		return 0, err
	}
	if out.Data.Total == nil {
		return 0, nil
	}
	return *out.Data.Total, nil
}
