package model

// ContentType selects the splitter separator set used for a site.
const (
	ContentTypeText = "text"
	ContentTypeCode = "code"
)

// Site is one crawl source definition, loaded from the sites file.
type Site struct {
	Name            string `yaml:"name" json:"name"`
	BaseURL         string `yaml:"base_url" json:"base_url"`
	AllowedDomain   string `yaml:"allowed_domain" json:"allowed_domain"`
	ContentSelector string `yaml:"content_selector" json:"content_selector"`
	ContentType     string `yaml:"content_type" json:"content_type"`
}
