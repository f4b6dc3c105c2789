package weibo

// Selectors holds every CSS selector the engine evaluates against the site.
// The site's markup uses generated class names, so these match on class
// substrings and are expected to need updating from configuration.
type Selectors struct {
	FeedItem        string `mapstructure:"feed_item" toml:"feed_item"`
	FeedReady       string `mapstructure:"feed_ready" toml:"feed_ready"`
	Author          string `mapstructure:"author" toml:"author"`
	Content         string `mapstructure:"content" toml:"content"`
	Images          string `mapstructure:"images" toml:"images"`
	Video           string `mapstructure:"video" toml:"video"`
	Timestamp       string `mapstructure:"timestamp" toml:"timestamp"`
	TopComments     string `mapstructure:"top_comments" toml:"top_comments"`
	Permalink       string `mapstructure:"permalink" toml:"permalink"`
	RepostMarker    string `mapstructure:"repost_marker" toml:"repost_marker"`
	OriginalContent string `mapstructure:"original_content" toml:"original_content"`
	GroupLinks      string `mapstructure:"group_links" toml:"group_links"`

	PostReady        string `mapstructure:"post_ready" toml:"post_ready"`
	Toolbar          string `mapstructure:"toolbar" toml:"toolbar"`
	ToolbarItem      string `mapstructure:"toolbar_item" toml:"toolbar_item"`
	RepostIcon       string `mapstructure:"repost_icon" toml:"repost_icon"`
	ModeCheckbox     string `mapstructure:"mode_checkbox" toml:"mode_checkbox"`
	ComposeContainer string `mapstructure:"compose_container" toml:"compose_container"`
	ToolbarScope     string `mapstructure:"toolbar_scope" toml:"toolbar_scope"`

	LoginButton    string `mapstructure:"login_button" toml:"login_button"`
	LoginFeed      string `mapstructure:"login_feed" toml:"login_feed"`
	ProfilePost    string `mapstructure:"profile_post" toml:"profile_post"`
	ProfileText    string `mapstructure:"profile_text" toml:"profile_text"`
	ProfileTime    string `mapstructure:"profile_time" toml:"profile_time"`
	OutboxItem     string `mapstructure:"outbox_item" toml:"outbox_item"`
	OutboxContent  string `mapstructure:"outbox_content" toml:"outbox_content"`
	OutboxOriginal string `mapstructure:"outbox_original" toml:"outbox_original"`
	OutboxTime     string `mapstructure:"outbox_time" toml:"outbox_time"`
}

func DefaultSelectors() Selectors {
	return Selectors{
		FeedItem:        `[class*="Feed_wrap"], [class*="card-wrap"], .WB_cardwrap`,
		FeedReady:       `[class*="Feed"], [class*="card"], .WB_cardwrap`,
		Author:          `[class*="head_name"], .WB_info a, [class*="name"]`,
		Content:         `[class*="detail_wbtext"], .WB_text, [class*="text"]`,
		Images:          `[class*="picture"] img, .WB_pic img, [class*="media"] img`,
		Video:           `[class*="video"], .WB_video, video`,
		Timestamp:       `[class*="head_time"], .WB_from, time, [class*="time"] a`,
		TopComments:     `[class*="comment"] [class*="text"], .list_con .WB_text`,
		Permalink:       `a[href*="/status/"], a[href*="weibo.com"]`,
		RepostMarker:    `[class*="repost"], .WB_expand`,
		OriginalContent: `[class*="repost"] [class*="text"], .WB_expand .WB_text`,
		GroupLinks:      `[class*="group"], .group_item, [class*="list"] a`,

		PostReady:        `[class*="Feed_body"], [class*="toolbar_item"]`,
		Toolbar:          `[class*="toolbar_left"]`,
		ToolbarItem:      `[class*="toolbar_item"]`,
		RepostIcon:       `[class*="Icon"], svg, i, [class*="retweet"]`,
		ModeCheckbox:     `[class*="checkbox"]`,
		ComposeContainer: `[class*="repost"], [class*="Repost"], [class*="compose"], [class*="Compose"]`,
		ToolbarScope:     `[class*="toolbar"]`,

		LoginButton:    `[class*="LoginBtn"]`,
		LoginFeed:      `[class*="Feed"], [class*="card"]`,
		ProfilePost:    `[class*="Feed_body"], [class*="card-wrap"], .WB_detail`,
		ProfileText:    `[class*="detail_wbtext"], .WB_text, [class*="text"]`,
		ProfileTime:    `[class*="head_time"], .WB_from, time, [class*="time"]`,
		OutboxItem:     `[class*="comment"], .list_li, [class*="Card"]`,
		OutboxContent:  `[class*="text"], [class*="content"], .WB_text`,
		OutboxOriginal: `[class*="original"], [class*="source"], .WB_info`,
		OutboxTime:     `[class*="time"], .WB_from, time`,
	}
}

// WithDefaults fills empty entries from DefaultSelectors.
func (s Selectors) WithDefaults() Selectors {
	d := DefaultSelectors()
	fill := func(dst *string, def string) {
		if *dst == "" {
			*dst = def
		}
	}
	fill(&s.FeedItem, d.FeedItem)
	fill(&s.FeedReady, d.FeedReady)
	fill(&s.Author, d.Author)
	fill(&s.Content, d.Content)
	fill(&s.Images, d.Images)
	fill(&s.Video, d.Video)
	fill(&s.Timestamp, d.Timestamp)
	fill(&s.TopComments, d.TopComments)
	fill(&s.Permalink, d.Permalink)
	fill(&s.RepostMarker, d.RepostMarker)
	fill(&s.OriginalContent, d.OriginalContent)
	fill(&s.GroupLinks, d.GroupLinks)
	fill(&s.PostReady, d.PostReady)
	fill(&s.Toolbar, d.Toolbar)
	fill(&s.ToolbarItem, d.ToolbarItem)
	fill(&s.RepostIcon, d.RepostIcon)
	fill(&s.ModeCheckbox, d.ModeCheckbox)
	fill(&s.ComposeContainer, d.ComposeContainer)
	fill(&s.ToolbarScope, d.ToolbarScope)
	fill(&s.LoginButton, d.LoginButton)
	fill(&s.LoginFeed, d.LoginFeed)
	fill(&s.ProfilePost, d.ProfilePost)
	fill(&s.ProfileText, d.ProfileText)
	fill(&s.ProfileTime, d.ProfileTime)
	fill(&s.OutboxItem, d.OutboxItem)
	fill(&s.OutboxContent, d.OutboxContent)
	fill(&s.OutboxOriginal, d.OutboxOriginal)
	fill(&s.OutboxTime, d.OutboxTime)
	return s
}

// Labels are the visible UI strings the engine matches on.
type Labels struct {
	RepostCount  string
	CommentCount string
	LikeCount    string

	// SharePrompt is the repost textarea placeholder; ShareHint is the
	// fragment accepted as a mode signal and ShareKeyword the looser one used
	// to find the textarea.
	SharePrompt  string
	ShareHint    string
	ShareKeyword string
	CommentAlso  string
	CloseOverlay string

	SubmitLabels   []string
	FallbackSubmit []string
}

func DefaultLabels() Labels {
	return Labels{
		RepostCount:    "转发",
		CommentCount:   "评论",
		LikeCount:      "赞",
		SharePrompt:    "说说分享心得",
		ShareHint:      "分享心得",
		ShareKeyword:   "分享",
		CommentAlso:    "同时评论",
		CloseOverlay:   "关闭",
		SubmitLabels:   []string{"转发", "发送", "确定"},
		FallbackSubmit: []string{"转发", "发送"},
	}
}
