package vatsim

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const vatusaBaseURL = "https://api.vatusa.net/v2"

// VATUSAClient resolves controller CIDs to real names. A client with an
// empty token is usable; RealName then always falls back to the CID.
type VATUSAClient struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewVATUSAClient(token string) *VATUSAClient {
	return &VATUSAClient{
		baseURL: vatusaBaseURL,
		token:   token,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// NewVATUSAClientWithURL is used by tests.
func NewVATUSAClientWithURL(token, url string) *VATUSAClient {
	c := NewVATUSAClient(token)
	c.baseURL = url
	return c
}

// RealName looks up the first/last name for a CID. Every failure path
// returns the CID itself so callers always have something displayable.
func (c *VATUSAClient) RealName(ctx context.Context, cid string) string {
	if c.token == "" {
		return cid
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/user/%s", c.baseURL, cid), nil)
	if err != nil {
		return cid
	}
	req.Header.Set("Authorization", "Token "+c.token)

	resp, err := c.client.Do(req)
	if err != nil {
		return cid
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return cid
	}

	var body struct {
		Data struct {
			FName string `json:"fname"`
			LName string `json:"lname"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return cid
	}
	if body.Data.FName == "" || body.Data.LName == "" {
		return cid
	}
	return body.Data.FName + " " + body.Data.LName
}
