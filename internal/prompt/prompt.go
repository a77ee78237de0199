// Package prompt loads the LLM prompt templates from a YAML file.
// Missing files or missing entries fall back to the compiled-in defaults
// so the pipeline never starts without a usable system prompt.
package prompt

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultRAGSystemPrompt instructs the model to answer in Vietnamese and
// cite record ids with the [Mã tài liệu: <record_id>] marker.
const DefaultRAGSystemPrompt = `Bạn là một trợ lý pháp lý chuyên nghiệp. Dựa trên câu hỏi của người dùng và các kết quả tìm kiếm liên quan từ cơ sở dữ liệu câu hỏi thường gặp của bạn, hãy trả lời câu hỏi và trích dẫn cơ sở pháp lý nếu có trong thông tin được cung cấp.
Không thêm ý kiến cá nhân; hãy trả lời chi tiết nhất có thể chỉ sử dụng các kết quả tìm kiếm được cung cấp để trả lời.
Khi trích dẫn nguồn, hãy tham chiếu đến Mã tài liệu (Record ID) được cung cấp trong ngữ cảnh theo định dạng: [Mã tài liệu: <record_id>].
Ví dụ: "Theo quy định trong [Mã tài liệu: QA_750F0D91], ...".
Luôn trả lời bằng tiếng Việt.`

// DefaultParaphrasePrompt rewrites the user question in legal terminology.
// The query text is appended after the template.
const DefaultParaphrasePrompt = `Viết lại câu hỏi sau đây sử dụng ngôn ngữ, thuật ngữ pháp lý:`

// DefaultKeywordPrompt asks the model for the query's key legal terms as a
// JSON string array.
const DefaultKeywordPrompt = `Bạn là một trợ lý trích xuất từ khóa pháp lý. Hãy trích xuất các từ khóa quan trọng nhất từ câu hỏi của người dùng. Trả về kết quả dưới dạng mảng JSON các chuỗi, ví dụ: ["thành lập doanh nghiệp", "vốn điều lệ"]. Không giải thích gì thêm.`

// Prompts holds the templates the orchestrator sends to the LLM.
type Prompts struct {
	RAGSystem  string `yaml:"rag_system"`
	Paraphrase string `yaml:"paraphrase"`
	Keyword    string `yaml:"keyword"`
}

type promptFile struct {
	Prompts struct {
		RAGPrompt struct {
			SystemPrompt string `yaml:"system_prompt"`
		} `yaml:"rag_prompt"`
		ParaphrasePrompt struct {
			SystemPrompt string `yaml:"system_prompt"`
		} `yaml:"paraphrase_prompt"`
		KeywordPrompt struct {
			SystemPrompt string `yaml:"system_prompt"`
		} `yaml:"keyword_prompt"`
	} `yaml:"prompts"`
}

// Defaults returns the compiled-in prompt set.
func Defaults() *Prompts {
	return &Prompts{
		RAGSystem:  DefaultRAGSystemPrompt,
		Paraphrase: DefaultParaphrasePrompt,
		Keyword:    DefaultKeywordPrompt,
	}
}

// Load reads prompt templates from path. Any entry absent from the file
// keeps its default; an unreadable file yields the full default set with a
// logged warning.
func Load(path string, logger *logrus.Logger) *Prompts {
	if logger == nil {
		logger = logrus.New()
	}

	prompts := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		logger.WithError(err).WithField("path", path).Warn("Prompt config not readable, using default prompts")
		return prompts
	}

	var file promptFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		logger.WithError(err).WithField("path", path).Warn("Prompt config not parseable, using default prompts")
		return prompts
	}

	if s := file.Prompts.RAGPrompt.SystemPrompt; s != "" {
		prompts.RAGSystem = s
	} else {
		logger.Warn("RAG system prompt is empty or not found in prompts configuration")
	}
	if s := file.Prompts.ParaphrasePrompt.SystemPrompt; s != "" {
		prompts.Paraphrase = s
	}
	if s := file.Prompts.KeywordPrompt.SystemPrompt; s != "" {
		prompts.Keyword = s
	}

	logger.WithField("path", path).Debug("Prompt configuration loaded")
	return prompts
}

// ParaphraseFor renders the paraphrase prompt for a query.
func (p *Prompts) ParaphraseFor(query string) string {
	return fmt.Sprintf("%s\n\n%s", p.Paraphrase, query)
}
