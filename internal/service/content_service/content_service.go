package content_service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tcp_snm/qotd/internal/metrics"
	"golang.org/x/net/html"
)

const (
	statementClass      = "problem-statement"
	problemsetUrlFormat = "https://codeforces.com/problemset/problem/%d/%s"
	maxPageBytes        = 4 << 20
)

// ContentService fetches problem statements through a scraping proxy.
// Without an ApiKey every fetch returns an empty statement.
type ContentService struct {
	ApiKey     string
	BaseUrl    string
	HttpClient *http.Client

	logger *logrus.Entry
}

func (c *ContentService) Start() {
	c.logger = logrus.WithFields(logrus.Fields{
		"from": "content_service",
	})

	if _, err := url.Parse(c.BaseUrl); err != nil || c.BaseUrl == "" {
		panic("cannot parse scraper base url: " + c.BaseUrl)
	}

	if c.HttpClient == nil {
		panic("content service expects non-nil http client")
	}

	if c.ApiKey == "" {
		c.logger.Warn("scraper api key is not configured, statements will not be fetched")
	}
}

// FetchStatement returns the plain text of the problem statement or an
// empty string if it could not be fetched. It makes exactly one attempt.
func (c *ContentService) FetchStatement(ctx context.Context, contestID int32, index string) string {
	if c.ApiKey == "" {
		return ""
	}

	target := fmt.Sprintf(problemsetUrlFormat, contestID, index)
	logger := c.logger.WithField("target", target)

	page, err := c.fetch(ctx, target)
	if err != nil {
		logger.Warnf("cannot fetch problem page, %v", err)
		return ""
	}

	statement := ExtractStatement(page)
	if statement == "" {
		logger.Warn("problem page has no statement")
	}
	return statement
}

func (c *ContentService) fetch(ctx context.Context, target string) (_ io.Reader, err error) {
	start := time.Now()
	defer func() { metrics.ObserveUpstream("scraper", start, err) }()

	scraperUrl, err := url.Parse(c.BaseUrl)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Add("api_key", c.ApiKey)
	params.Add("url", target)
	scraperUrl.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, scraperUrl.String(), nil)
	if err != nil {
		return nil, err
	}

	res, err := c.HttpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("scraper responded with code %v", res.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxPageBytes))
	if err != nil {
		return nil, err
	}
	return bytes.NewReader(body), nil
}

// ExtractStatement returns the whitespace collapsed text of the first
// element carrying the problem-statement class, or "" if there is none.
func ExtractStatement(page io.Reader) string {
	doc, err := html.Parse(page)
	if err != nil {
		return ""
	}

	node := findByClass(doc, statementClass)
	if node == nil {
		return ""
	}

	var sb strings.Builder
	collectText(node, &sb)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func findByClass(n *html.Node, class string) *html.Node {
	if n.Type == html.ElementNode && hasClass(n, class) {
		return n
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if found := findByClass(child, class); found != nil {
			return found
		}
	}
	return nil
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func collectText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		sb.WriteString(n.Data)
		sb.WriteByte(' ')
		return
	}
	// scripts and styles are not part of the statement
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, sb)
	}
}
