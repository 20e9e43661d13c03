package agent

import (
	"testing"

	"go.uber.org/goleak"
)

// fan-out и фоновая запись истории не должны оставлять горутин
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
