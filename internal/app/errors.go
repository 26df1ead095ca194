package service

import (
	"errors"
	"fmt"

	"github.com/okian/attrition/internal/domain/model"
)

// Sentinel kinds for service errors.
var (
	ErrNotStarted   = errors.New("service not started")
	ErrEmptyDataset = fmt.Errorf("%w: dataset is empty", model.ErrInsufficientData)
)
