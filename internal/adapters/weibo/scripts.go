package weibo

import (
	"encoding/json"
	"fmt"
)

// js renders a Go value as a JavaScript literal.
func js(value any) string {
	encoded, err := json.Marshal(value)
	if err != nil {
		return "null"
	}
	return string(encoded)
}

func feedScript(sel Selectors, labels Labels) string {
	return fmt.Sprintf(`(function() {
  const posts = [];
  const countOf = (text, label) => {
    const match = text.match(new RegExp('(\\d+)\\s*' + label));
    return match ? parseInt(match[1], 10) : 0;
  };
  document.querySelectorAll(%s).forEach((item, index) => {
    try {
      const id = item.getAttribute('mid') || item.getAttribute('data-id') || 'post_' + index + '_' + Date.now();
      const authorEl = item.querySelector(%s);
      const authorLink = (authorEl && authorEl.getAttribute('href')) || '';
      const authorMatch = authorLink.match(/\/u\/(\d+)/) || authorLink.match(/\/(\d+)/);
      const contentEl = item.querySelector(%s);
      const images = [];
      item.querySelectorAll(%s).forEach(img => {
        const src = img.getAttribute('src') || img.getAttribute('data-src');
        if (src) images.push(src);
      });
      const videoEl = item.querySelector(%s);
      const timeEl = item.querySelector(%s);
      const text = item.textContent || '';
      const topComments = [];
      item.querySelectorAll(%s).forEach(el => {
        const t = (el.textContent || '').trim();
        if (t) topComments.push(t);
      });
      const linkEl = item.querySelector(%s);
      const originalEl = item.querySelector(%s);
      posts.push({
        id: id,
        authorName: authorEl ? (authorEl.textContent || '').trim() : '',
        authorId: authorMatch ? authorMatch[1] : '',
        content: contentEl ? (contentEl.textContent || '').trim() : '',
        images: images,
        hasVideo: !!videoEl,
        videoDescription: videoEl ? (videoEl.getAttribute('title') || videoEl.getAttribute('alt') || '') : '',
        timestamp: timeEl ? ((timeEl.textContent || '').trim() || timeEl.getAttribute('title') || '') : '',
        reposts: countOf(text, %s),
        comments: countOf(text, %s),
        likes: countOf(text, %s),
        topComments: topComments.slice(0, 3),
        url: (linkEl && linkEl.getAttribute('href')) || '',
        isRepost: !!item.querySelector(%s),
        originalContent: originalEl ? (originalEl.textContent || '').trim() : ''
      });
    } catch (e) {}
  });
  return posts;
})()`,
		js(sel.FeedItem),
		js(sel.Author),
		js(sel.Content),
		js(sel.Images),
		js(sel.Video),
		js(sel.Timestamp),
		js(sel.TopComments),
		js(sel.Permalink),
		js(sel.OriginalContent),
		js(labels.RepostCount),
		js(labels.CommentCount),
		js(labels.LikeCount),
		js(sel.RepostMarker),
	)
}

const pageHTMLScript = `document.documentElement.outerHTML`

// toolbarOffsetsScript lists the document offset of every toolbar.
func toolbarOffsetsScript(sel Selectors) string {
	return fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).map(el => el.getBoundingClientRect().top + window.scrollY)`, js(sel.Toolbar))
}

func scrollToScript(y float64) string {
	return fmt.Sprintf("window.scrollTo(0, %s)", js(y))
}

// repostControlScript locates the repost control in the toolbar at index,
// preferring its icon over the item's left edge.
func repostControlScript(sel Selectors, index int) string {
	return fmt.Sprintf(`(function() {
  const toolbar = document.querySelectorAll(%s)[%d];
  if (!toolbar) return { found: false, x: 0, y: 0 };
  const item = toolbar.querySelector(%s);
  if (!item) return { found: false, x: 0, y: 0 };
  const icon = item.querySelector(%s);
  if (icon) {
    const r = icon.getBoundingClientRect();
    return { found: true, x: r.left + r.width / 2, y: r.top + r.height / 2 };
  }
  const r = item.getBoundingClientRect();
  return { found: true, x: r.left + 15, y: r.top + r.height / 2 };
})()`, js(sel.Toolbar), index, js(sel.ToolbarItem), js(sel.RepostIcon))
}

func repostModeSignalsScript(sel Selectors) string {
	return fmt.Sprintf(`({
  hash: window.location.hash,
  placeholders: Array.from(document.querySelectorAll('textarea')).map(ta => ta.placeholder || ''),
  checkboxes: Array.from(document.querySelectorAll(%s)).map(cb => (cb.textContent || '').trim())
})`, js(sel.ModeCheckbox))
}

const textareaPlaceholdersScript = `Array.from(document.querySelectorAll('textarea')).map(ta => ta.placeholder || '')`

// findTextareaJS is an expression selecting the repost textarea or null.
func findTextareaJS(labels Labels) string {
	return fmt.Sprintf(`Array.from(document.querySelectorAll('textarea')).find(ta => (ta.placeholder || '') === %s || (ta.placeholder || '').includes(%s)) || null`,
		js(labels.SharePrompt), js(labels.ShareKeyword))
}

func fillCommentScript(labels Labels, text string) string {
	return fmt.Sprintf(`(function() {
  const ta = %s;
  if (!ta) return false;
  const text = %s;
  ta.scrollIntoView({ behavior: 'smooth', block: 'center' });
  ta.focus();
  ta.value = text;
  ta.dispatchEvent(new Event('input', { bubbles: true }));
  ta.dispatchEvent(new Event('change', { bubbles: true }));
  const desc = Object.getOwnPropertyDescriptor(window.HTMLTextAreaElement.prototype, 'value');
  if (desc && desc.set) {
    desc.set.call(ta, text);
    ta.dispatchEvent(new Event('input', { bubbles: true }));
  }
  return true;
})()`, findTextareaJS(labels), js(text))
}

func dismissOverlayScript(labels Labels) string {
	return fmt.Sprintf(`(function() {
  for (const span of document.querySelectorAll('span')) {
    if ((span.textContent || '').trim() === %s) {
      span.click();
      return true;
    }
  }
  return false;
})()`, js(labels.CloseOverlay))
}

func submitScript(sel Selectors, labels Labels) string {
	return fmt.Sprintf(`(function() {
  const ta = %s;
  const labels = %s;
  const fallback = %s;
  if (ta) {
    const area = ta.closest(%s) || (ta.parentElement && ta.parentElement.parentElement && ta.parentElement.parentElement.parentElement);
    if (area) {
      for (const btn of area.querySelectorAll('button')) {
        if (labels.includes((btn.textContent || '').trim())) {
          btn.click();
          return true;
        }
      }
    }
  }
  for (const btn of document.querySelectorAll('button')) {
    if (fallback.includes((btn.textContent || '').trim()) && !btn.disabled && !btn.closest(%s)) {
      btn.click();
      return true;
    }
  }
  return false;
})()`, findTextareaJS(labels), js(labels.SubmitLabels), js(labels.FallbackSubmit), js(sel.ComposeContainer), js(sel.ToolbarScope))
}

func loggedInScript(sel Selectors) string {
	return fmt.Sprintf(`!document.querySelector(%s) && !window.location.href.includes('passport')`, js(sel.LoginButton))
}

func profilePostsScript(sel Selectors) string {
	return fmt.Sprintf(`(function() {
  const out = [];
  document.querySelectorAll(%s).forEach(item => {
    const textEl = item.querySelector(%s);
    const timeEl = item.querySelector(%s);
    if (textEl) {
      out.push({
        content: (textEl.textContent || '').trim(),
        timestamp: timeEl ? (timeEl.textContent || '').trim() : ''
      });
    }
  });
  return out;
})()`, js(sel.ProfilePost), js(sel.ProfileText), js(sel.ProfileTime))
}

func outboxCommentsScript(sel Selectors) string {
	return fmt.Sprintf(`(function() {
  const out = [];
  document.querySelectorAll(%s).forEach(item => {
    const contentEl = item.querySelector(%s);
    const originalEl = item.querySelector(%s);
    const timeEl = item.querySelector(%s);
    if (contentEl) {
      out.push({
        content: (contentEl.textContent || '').trim(),
        originalPost: originalEl ? (originalEl.textContent || '').trim() : '',
        timestamp: timeEl ? (timeEl.textContent || '').trim() : ''
      });
    }
  });
  return out;
})()`, js(sel.OutboxItem), js(sel.OutboxContent), js(sel.OutboxOriginal), js(sel.OutboxTime))
}
