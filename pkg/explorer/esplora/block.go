package esplora

import (
	"fmt"
	"strconv"
	"strings"
)

func (e *esplora) GetBlockHeight() (uint64, error) {
	url := fmt.Sprintf("%s/blocks/tip/height", e.apiURL)
	resp, err := e.getRequest(url)
	if err != nil {
		return 0, err
	}

	height, err := strconv.ParseUint(strings.TrimSpace(resp), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid tip height: %v", err)
	}
	return height, nil
}
