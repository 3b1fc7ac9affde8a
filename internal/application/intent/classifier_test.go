package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xiebiao/bookchat/internal/nlp"
)

// fakeGenerator 固定应答的文本生成器
type fakeGenerator struct {
	response string
	err      error
	called   bool
}

func (g *fakeGenerator) Generate(context.Context, string) (string, error) {
	g.called = true
	return g.response, g.err
}

// TestClassifier_HighConfidenceRuleSkipsModel 规则置信度足够时不调用模型
func TestClassifier_HighConfidenceRuleSkipsModel(t *testing.T) {
	gen := &fakeGenerator{}
	c := NewClassifier(gen, nil)

	result := c.Classify(context.Background(), "tôi muốn mua sách", Context{})

	assert.Equal(t, nlp.IntentOrder, result.Intent)
	assert.Equal(t, 0.8, result.Confidence)
	assert.False(t, gen.called)
}

// TestClassifier_BarePhoneFastPath 纯号码消息走快路径,附带电话槽位
func TestClassifier_BarePhoneFastPath(t *testing.T) {
	c := NewClassifier(nil, nil)

	result := c.Classify(context.Background(), "0123456789", Context{})

	assert.Equal(t, nlp.IntentOrderStatus, result.Intent)
	assert.Equal(t, 1.0, result.Confidence)
	assert.Equal(t, "0123456789", result.Slots.Phone)
}

// TestClassifier_ModelWinsWhenMoreConfident 规则低置信时采纳更高置信的模型结果
func TestClassifier_ModelWinsWhenMoreConfident(t *testing.T) {
	gen := &fakeGenerator{
		response: `{"intent": "SEARCH", "confidence": 0.85, "extracted_info": {"search_query": "sách lịch sử"}}`,
	}
	c := NewClassifier(gen, nil)

	result := c.Classify(context.Background(), "cho hỏi về mấy quyển hay hay", Context{})

	assert.True(t, gen.called)
	assert.Equal(t, nlp.IntentSearch, result.Intent)
	assert.Equal(t, 0.85, result.Confidence)
	assert.Equal(t, "sách lịch sử", result.Slots.SearchQuery)
}

// TestClassifier_ModelLessConfidentKeepsRule 模型置信度不高于规则时沿用规则结果
func TestClassifier_ModelLessConfidentKeepsRule(t *testing.T) {
	gen := &fakeGenerator{
		response: `{"intent": "ORDER", "confidence": 0.3, "extracted_info": {}}`,
	}
	c := NewClassifier(gen, nil)

	result := c.Classify(context.Background(), "hmm", Context{})

	assert.Equal(t, nlp.IntentGeneral, result.Intent)
	assert.Equal(t, 0.5, result.Confidence)
}

// TestClassifier_ModelFailureDegradesToRule 模型失败不向外传播,沿用规则结果
func TestClassifier_ModelFailureDegradesToRule(t *testing.T) {
	gen := &fakeGenerator{err: errors.New("ollama down")}
	c := NewClassifier(gen, nil)

	result := c.Classify(context.Background(), "hmm", Context{})

	assert.Equal(t, nlp.IntentGeneral, result.Intent)
	assert.Equal(t, 0.5, result.Confidence)
}

// TestClassifier_GarbageModelOutputDegrades 模型输出不是JSON时沿用规则结果
func TestClassifier_GarbageModelOutputDegrades(t *testing.T) {
	gen := &fakeGenerator{response: "xin lỗi tôi không hiểu"}
	c := NewClassifier(gen, nil)

	result := c.Classify(context.Background(), "hmm", Context{})

	assert.Equal(t, nlp.IntentGeneral, result.Intent)
}

// TestClassifier_InvalidIntentLabelNormalized 模型返回未知标签时归一为GENERAL
func TestClassifier_InvalidIntentLabelNormalized(t *testing.T) {
	gen := &fakeGenerator{
		response: `{"intent": "CHITCHAT", "confidence": 0.9, "extracted_info": {}}`,
	}
	c := NewClassifier(gen, nil)

	result := c.Classify(context.Background(), "hmm", Context{})

	assert.Equal(t, nlp.IntentGeneral, result.Intent)
}

// TestClassifier_NilGenerator 无模型时纯规则运行
func TestClassifier_NilGenerator(t *testing.T) {
	c := NewClassifier(nil, nil)

	result := c.Classify(context.Background(), "hmm", Context{})

	assert.Equal(t, nlp.IntentGeneral, result.Intent)
	assert.Equal(t, 0.5, result.Confidence)
}
