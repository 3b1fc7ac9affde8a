package chat

import (
	"os"
	"testing"

	"github.com/xiebiao/bookchat/pkg/metrics"
)

func TestMain(m *testing.M) {
	// 下单用例内有指标埋点,测试前必须注册指标
	metrics.InitMetrics()
	os.Exit(m.Run())
}
