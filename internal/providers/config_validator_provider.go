package providers

import (
	"errors"
	"fmt"
	"time"
	"watchtime/internal/structures"

	"github.com/gookit/validate"
)

type CnfValidator struct {
	conf *structures.Config
}

func NewCnfValidator(conf *structures.Config) *CnfValidator {
	return &CnfValidator{conf: conf}
}

func (cv *CnfValidator) Validate() error {
	v := validate.Struct(cv.conf)
	if !v.Validate() {
		return v.Errors
	}
	if err := cv.validateStorage(); err != nil {
		return err
	}
	if cv.conf.Aggregation.Timezone != "" {
		if _, err := time.LoadLocation(cv.conf.Aggregation.Timezone); err != nil {
			return fmt.Errorf("aggregation.timezone: %w", err)
		}
	}
	if cv.conf.Aggregation.QueueSize < 0 {
		return errors.New("aggregation.queueSize must not be negative")
	}
	return nil
}

// validateStorage checks the fields required by the selected driver only.
func (cv *CnfValidator) validateStorage() error {
	s := cv.conf.Storage
	switch s.Driver {
	case structures.DriverFile:
		if s.FilePath == "" {
			return errors.New("storage.filePath is required for the file driver")
		}
		if s.SaveInterval <= 0 {
			return errors.New("storage.saveInterval must be positive for the file driver")
		}
	case structures.DriverSQLite:
		if s.SQLitePath == "" {
			return errors.New("storage.sqlitePath is required for the sqlite driver")
		}
	case structures.DriverRedis:
		if s.RedisAddr == "" {
			return errors.New("storage.redisAddr is required for the redis driver")
		}
	}
	return nil
}
