package push

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/plantona/plantona-api/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want model.ErrorClass
	}{
		{"endpoint gone 410", &EndpointGoneError{StatusCode: 410}, model.ErrorClassPermanent},
		{"endpoint gone 404", &EndpointGoneError{StatusCode: 404}, model.ErrorClassPermanent},
		{"wrapped endpoint gone", fmt.Errorf("send: %w", &EndpointGoneError{StatusCode: 410}), model.ErrorClassPermanent},
		{"generic failure", errors.New("connection reset"), model.ErrorClassTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestReminderPayload(t *testing.T) {
	p := ReminderPayload()

	assert.Equal(t, "Plantona", p.Title)
	assert.NotEmpty(t, p.Body)
	assert.Equal(t, "/plants", p.Data["url"])
}
