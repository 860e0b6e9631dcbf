package browser

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/v0xg/webagent/internal/pagemap"
	"go.uber.org/zap"
)

const (
	settleTimeout  = 5 * time.Second
	idleWindow     = 500 * time.Millisecond
	renderInterval = 200 * time.Millisecond
)

// PageMap waits for the current document to settle and extracts its
// visible interactive elements
func (d *Driver) PageMap(ctx context.Context) (*pagemap.PageMap, error) {
	p := d.page.Context(ctx)
	if err := p.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load: %w", err)
	}

	// persistent connections never go idle, so the wait is bounded
	p.Timeout(settleTimeout).WaitRequestIdle(idleWindow, nil, nil, nil)()

	isSPA := evalBool(p, detectSPAScript)
	if isSPA {
		waitForInteractiveElements(ctx, p, settleTimeout)
	}

	res, err := p.Eval(extractScript)
	if err != nil {
		return nil, fmt.Errorf("extract page map: %w", err)
	}
	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var m pagemap.PageMap
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode page map: %w", err)
	}
	m.IsSPA = isSPA

	d.logger.Debug("page mapped",
		zap.String("url", m.URL),
		zap.Int("elements", len(m.Elements)),
		zap.Int("navigation", len(m.Navigation)),
	)
	return &m, nil
}

// waitForInteractiveElements polls until something clickable is visible
func waitForInteractiveElements(ctx context.Context, p *rod.Page, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		res, err := p.Eval(countVisibleScript)
		if err == nil && res.Value.Int() > 0 {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(renderInterval):
		}
	}
}

func evalBool(p *rod.Page, script string) bool {
	res, err := p.Eval(script)
	if err != nil {
		return false
	}
	return res.Value.Bool()
}

const countVisibleScript = `() => {
	const all = document.querySelectorAll('button, [role="button"], input:not([type="hidden"]), textarea, a[href]');
	let visible = 0;
	all.forEach(el => { if (el.offsetParent) visible++; });
	return visible;
}`

const detectSPAScript = `() => {
	if (window.__REACT_DEVTOOLS_GLOBAL_HOOK__ || document.querySelector('[data-reactroot]') || document.querySelector('#__next')) return true;
	if (window.__VUE__ || document.querySelector('[data-v-app]')) return true;
	if (window.ng || document.querySelector('[ng-version]') || document.querySelector('app-root')) return true;
	if (document.querySelector('[class*="svelte-"]')) return true;
	return false;
}`

const extractScript = `() => {
	const elements = [];
	const seen = new Set();

	function xpathOf(el) {
		const parts = [];
		for (let node = el; node && node.nodeType === 1; node = node.parentNode) {
			let index = 1;
			for (let sib = node.previousElementSibling; sib; sib = sib.previousElementSibling) {
				if (sib.tagName === node.tagName) index++;
			}
			parts.unshift(node.tagName.toLowerCase() + '[' + index + ']');
		}
		return '/' + parts.join('/');
	}

	function text(el, max) {
		return (el.textContent || el.value || '').replace(/\s+/g, ' ').trim().slice(0, max);
	}

	function add(el, type) {
		if (!el.offsetParent) return;
		const xpath = xpathOf(el);
		if (seen.has(xpath)) return;
		seen.add(xpath);
		elements.push({
			tag: el.tagName.toLowerCase(),
			type: type,
			text: text(el, 50) || undefined,
			id: el.id || undefined,
			name: el.getAttribute('name') || undefined,
			placeholder: el.getAttribute('placeholder') || undefined,
			ariaLabel: el.getAttribute('aria-label') || undefined,
			class: (typeof el.className === 'string' && el.className.trim()) || undefined,
			href: el.getAttribute('href') || undefined,
			xpath: xpath
		});
	}

	document.querySelectorAll('button, [role="button"], input[type="submit"], input[type="button"]')
		.forEach(el => add(el, 'button'));
	document.querySelectorAll('input:not([type="hidden"]):not([type="submit"]):not([type="button"]):not([type="checkbox"]):not([type="radio"]), textarea')
		.forEach(el => add(el, el.tagName === 'TEXTAREA' ? 'textarea' : (el.type || 'text')));
	document.querySelectorAll('a[href]').forEach(el => {
		const href = el.getAttribute('href');
		if (href.startsWith('#') || href.startsWith('javascript:')) return;
		add(el, 'link');
	});
	document.querySelectorAll('select').forEach(el => add(el, 'select'));
	document.querySelectorAll('input[type="checkbox"], input[type="radio"]').forEach(el => add(el, el.type));

	const navigation = [];
	const hrefs = new Set();
	document.querySelectorAll('nav a, header a, [role="navigation"] a').forEach(el => {
		if (!el.offsetParent) return;
		const href = el.getAttribute('href');
		if (!href || href === '#' || href.startsWith('javascript:') || hrefs.has(href)) return;
		hrefs.add(href);
		navigation.push({ text: text(el, 30), href: href, id: el.id || undefined });
	});

	return { url: window.location.href, title: document.title, elements, navigation };
}`
