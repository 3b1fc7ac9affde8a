package nlp

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/xiebiao/bookchat/internal/domain/book"
)

// ordinalPatternRes 数字序号模式("cuốn số 2"、"quyển 3"),1开始计数
var ordinalPatternRes = []*regexp.Regexp{
	regexp.MustCompile(`cuốn\s*(?:số\s*)?(\d+)`),
	regexp.MustCompile(`sách\s*(?:số\s*)?(\d+)`),
	regexp.MustCompile(`(?:thứ|số)\s*(\d+)`),
	regexp.MustCompile(`quyển\s*(\d+)`),
}

// deicticPairs 指代词→下标(有序:先精确后宽泛,-1表示最后一个)
var deicticPairs = []struct {
	word  string
	index int
}{
	{"này", 0}, {"đó", 0}, {"kia", 0},
	{"trên", 0}, {"đầu tiên", 0}, {"đầu", 0}, {"first", 0},
	{"thứ hai", 1}, {"thứ 2", 1}, {"second", 1},
	{"thứ ba", 2}, {"thứ 3", 2}, {"third", 2},
	{"cuối", -1}, {"last", -1}, {"cuối cùng", -1},
}

// ResolveBookRef 把"cuốn số 2"、"cuốn này"这类指代解析为最近检索结果中的一本书
//
// 规则要点:
// 1. 数字序号优先于指代词
// 2. 序号越界不报错也不收敛到边界,落空后继续尝试指代词,最终返回nil
// 3. lastBooks为空直接返回nil
func ResolveBookRef(message string, lastBooks []*book.Book) *book.Book {
	if len(lastBooks) == 0 {
		return nil
	}

	messageLower := strings.ToLower(message)

	for _, re := range ordinalPatternRes {
		m := re.FindStringSubmatch(messageLower)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		index := n - 1
		if index >= 0 && index < len(lastBooks) {
			return lastBooks[index]
		}
	}

	for _, p := range deicticPairs {
		if !strings.Contains(messageLower, p.word) {
			continue
		}
		if p.index == -1 {
			return lastBooks[len(lastBooks)-1]
		}
		if p.index < len(lastBooks) {
			return lastBooks[p.index]
		}
	}

	return nil
}

// orderTitlePatternRes 下单语句中的书名模式
var orderTitlePatternRes = []*regexp.Regexp{
	regexp.MustCompile(`đặt (?:sách |cuốn )?["']?([^"']+)["']?`),
	regexp.MustCompile(`mua (?:sách |cuốn )?["']?([^"']+)["']?`),
	regexp.MustCompile(`order (?:sách |cuốn )?["']?([^"']+)["']?`),
	regexp.MustCompile(`tôi muốn (?:mua |đặt )?(?:sách |cuốn )?["']?([^"']+)["']?`),
}

// titleStopWords 书名尾部噪音词:截断其后的内容
var titleStopWords = []string{"với", "số lượng", "quyển", "cuốn", "tên là", "có tên"}

// ExtractOrderTitle 从下单语句中提取书名提示("đặt sách Nhà Giả Kim" → "nhà giả kim")
// 提取不到返回空串
func ExtractOrderTitle(message string) string {
	messageLower := strings.ToLower(message)

	for _, re := range orderTitlePatternRes {
		m := re.FindStringSubmatch(messageLower)
		if m == nil {
			continue
		}
		title := strings.TrimSpace(m[1])
		for _, stop := range titleStopWords {
			if idx := strings.Index(title, stop); idx >= 0 {
				title = strings.TrimSpace(title[:idx])
			}
		}
		if title != "" {
			return title
		}
	}

	return ""
}
