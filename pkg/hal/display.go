package hal

import (
	"errors"
	"log"

	"github.com/sudotouchwoman/wappsto-bridge/pkg/common"
)

// LogDisplay scrolls text into a logger.
type LogDisplay struct {
	Log *log.Logger
}

func (ld LogDisplay) Scroll(text string) error {
	if ld.Log == nil {
		log.Println(text)
		return nil
	}
	ld.Log.Println(text)
	return nil
}

// MultiDisplay shows the same text on every display.
type MultiDisplay []common.Display

func (md MultiDisplay) Scroll(text string) error {
	var errs []error
	for _, d := range md {
		if err := d.Scroll(text); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
