package blum

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Amount is a balance value. The API sends it either as a number or as a numeric string
type Amount float64

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*a = 0
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*a = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("amount %q: %w", s, err)
		}
		*a = Amount(f)
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*a = Amount(f)
	return nil
}

// BalanceResponse is the response from the balance endpoint
type BalanceResponse struct {
	AvailableBalance *Amount  `json:"availableBalance"`
	Farming          *Farming `json:"farming,omitempty"`
}

// Farming is the current farming cycle
type Farming struct {
	Balance   Amount `json:"balance"`
	StartTime int64  `json:"startTime,omitempty"`
	EndTime   *int64 `json:"endTime"`
}

// FarmingStatus is derived from one balance fetch.
// EndTime is zero when the server reports no farming cycle
type FarmingStatus struct {
	AvailableBalance float64
	FarmBalance      float64
	EndTime          time.Time
}

// HasCycle reports whether a farming end time is known
func (s FarmingStatus) HasCycle() bool {
	return !s.EndTime.IsZero()
}

// Status converts the wire response into a FarmingStatus
func (r *BalanceResponse) Status() FarmingStatus {
	status := FarmingStatus{}
	if r.AvailableBalance != nil {
		status.AvailableBalance = float64(*r.AvailableBalance)
	}
	if r.Farming != nil {
		status.FarmBalance = float64(r.Farming.Balance)
		if r.Farming.EndTime != nil && *r.Farming.EndTime > 0 {
			status.EndTime = time.UnixMilli(*r.Farming.EndTime)
		}
	}
	return status
}

// Tokens is a new credential pair from the refresh endpoint
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// apiError is the error body of gateway endpoints
type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
