package cart

import (
	"bytes"
	"encoding/json"
)

// MarshalQuantities encodes the cart as a JSON object of item id to quantity,
// the shape stored on user records.
func MarshalQuantities(c *Cart) ([]byte, error) {
	return json.Marshal(c.Items())
}

// UnmarshalQuantities decodes a stored cart. Empty or null data is an empty
// cart; entries with a zero quantity are dropped.
func UnmarshalQuantities(userID string, data []byte) (*Cart, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return New(userID), nil
	}
	var quantities map[ItemID]int
	if err := json.Unmarshal(data, &quantities); err != nil {
		return nil, err
	}
	return FromQuantities(userID, quantities), nil
}
