package txmodel

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadTransaction reads and parses the mock transaction fixture named
// by the CKB_TX_FILE environment variable, the same file the Rust
// simulator's lazy_static TRANSACTION loads at first syscall.
func LoadTransaction() (*Transaction, error) {
	path := os.Getenv("CKB_TX_FILE")
	if path == "" {
		return nil, fmt.Errorf("txmodel: CKB_TX_FILE is not set")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("txmodel: reading CKB_TX_FILE: %w", err)
	}
	var tx Transaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return nil, fmt.Errorf("txmodel: parsing CKB_TX_FILE: %w", err)
	}
	return &tx, nil
}
