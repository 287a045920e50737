package layout

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/rohmanhakim/result-finder/internal/dom"
	"github.com/rohmanhakim/result-finder/internal/metadata"
	"github.com/rohmanhakim/result-finder/pkg/failure"
	"golang.org/x/net/html"
)

// stampAttr carries an element's querySelectorAll index from the live page
// into the serialized DOM, so parsed nodes can be matched to measured boxes.
const stampAttr = "data-rf-index"

// Rendered serves geometry measured in a real browser.
type Rendered struct {
	boxes   map[dom.NodeID]Box
	visible dom.Set[dom.NodeID]
}

// BrowserParam configures how a page is rendered.
type BrowserParam struct {
	// ControlURL of a running browser's DevTools endpoint; empty launches a
	// local headless Chrome.
	ControlURL string
	UserAgent  string
	Timeout    time.Duration
}

// Source is either a URL to navigate to or markup to load directly.
type Source struct {
	URL  string
	HTML string
}

type measurement struct {
	Index   int     `json:"i"`
	Top     float64 `json:"t"`
	Left    float64 `json:"l"`
	Width   float64 `json:"w"`
	Height  float64 `json:"h"`
	Visible bool    `json:"v"`
}

const measureScript = `() => {
	const out = [];
	const all = document.querySelectorAll('*');
	const sx = window.scrollX, sy = window.scrollY;
	for (let i = 0; i < all.length; i++) {
		const el = all[i];
		el.setAttribute('` + stampAttr + `', String(i));
		const r = el.getBoundingClientRect();
		let top = r.top, left = r.left, width = r.width, height = r.height;
		if (width === 0 && el.children.length > 0) {
			let minT = Infinity, minL = Infinity, maxB = -Infinity, maxR = -Infinity;
			for (const c of el.children) {
				const cr = c.getBoundingClientRect();
				if (cr.width === 0 && cr.height === 0) continue;
				minT = Math.min(minT, cr.top);
				minL = Math.min(minL, cr.left);
				maxB = Math.max(maxB, cr.bottom);
				maxR = Math.max(maxR, cr.right);
			}
			if (minT !== Infinity) {
				top = minT; left = minL; width = maxR - minL; height = maxB - minT;
			}
		}
		const cs = window.getComputedStyle(el);
		const detached = el.offsetParent === null && cs.position !== 'fixed'
			&& el.tagName !== 'BODY' && el.tagName !== 'HTML';
		const visible = cs.display !== 'none' && cs.visibility !== 'hidden'
			&& parseFloat(cs.opacity) !== 0 && !detached;
		out.push({i: i, t: top + sy, l: left + sx, w: width, h: height, v: visible});
	}
	return JSON.stringify(out);
}`

const outerHTMLScript = `() => document.documentElement.outerHTML`

// Render loads src in a stealth browser tab, measures every element and
// returns the rendered document together with its geometry.
func Render(
	ctx context.Context,
	src Source,
	param BrowserParam,
	metadataSink metadata.MetadataSink,
) (*dom.Document, *Rendered, failure.ClassifiedError) {
	doc, rendered, err := render(ctx, src, param)
	if err != nil {
		if layoutErr, ok := err.(*LayoutError); ok {
			metadataSink.RecordError(
				time.Now(),
				"layout",
				"Render",
				mapLayoutErrorToMetadataCause(layoutErr),
				err.Error(),
				[]metadata.Attribute{
					metadata.NewAttr(metadata.AttrURL, src.URL),
				},
			)
		}
		return nil, nil, err
	}
	return doc, rendered, nil
}

func render(ctx context.Context, src Source, param BrowserParam) (*dom.Document, *Rendered, failure.ClassifiedError) {
	controlURL := param.ControlURL
	if controlURL == "" {
		l := launcher.New().
			Headless(true).
			Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return nil, nil, &LayoutError{Message: err.Error(), Retryable: false, Cause: ErrCauseBrowserLaunch}
		}
		defer l.Kill()
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, nil, &LayoutError{Message: err.Error(), Retryable: true, Cause: ErrCauseBrowserConnect}
	}
	defer browser.Close()

	page, err := stealth.Page(browser)
	if err != nil {
		return nil, nil, &LayoutError{Message: err.Error(), Retryable: true, Cause: ErrCauseBrowserConnect}
	}
	defer page.Close()

	if param.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: param.UserAgent}); err != nil {
			return nil, nil, &LayoutError{Message: err.Error(), Retryable: false, Cause: ErrCauseNavigation}
		}
	}

	timeout := param.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	p := page.Context(navCtx)

	if src.HTML != "" {
		err = p.SetDocumentContent(src.HTML)
	} else {
		err = p.Navigate(src.URL)
	}
	if err != nil {
		return nil, nil, &LayoutError{Message: err.Error(), Retryable: true, Cause: ErrCauseNavigation}
	}
	if err := p.WaitLoad(); err != nil {
		return nil, nil, &LayoutError{Message: err.Error(), Retryable: true, Cause: ErrCauseNavigation}
	}

	res, err := p.Eval(measureScript)
	if err != nil {
		return nil, nil, &LayoutError{Message: err.Error(), Retryable: false, Cause: ErrCauseScript}
	}
	var measured []measurement
	if err := json.Unmarshal([]byte(res.Value.Str()), &measured); err != nil {
		return nil, nil, &LayoutError{Message: err.Error(), Retryable: false, Cause: ErrCauseDecode}
	}

	res, err = p.Eval(outerHTMLScript)
	if err != nil {
		return nil, nil, &LayoutError{Message: err.Error(), Retryable: false, Cause: ErrCauseScript}
	}
	doc, parseErr := dom.ParseString(res.Value.Str())
	if parseErr != nil {
		return nil, nil, parseErr
	}

	return doc, attachMeasurements(doc, measured), nil
}

// attachMeasurements matches stamped elements to their measurements and
// removes the stamps from the parsed tree.
func attachMeasurements(doc *dom.Document, measured []measurement) *Rendered {
	byIndex := make(map[int]measurement, len(measured))
	for _, m := range measured {
		byIndex[m.Index] = m
	}

	r := &Rendered{
		boxes:   make(map[dom.NodeID]Box),
		visible: dom.NewSet[dom.NodeID](),
	}
	for i := 0; i < doc.Len(); i++ {
		id := dom.NodeID(i)
		node := doc.Node(id)
		stamp, ok := removeAttr(node, stampAttr)
		if !ok {
			continue
		}
		idx, err := strconv.Atoi(stamp)
		if err != nil {
			continue
		}
		m, ok := byIndex[idx]
		if !ok {
			continue
		}
		r.boxes[id] = Box{Top: m.Top, Left: m.Left, Width: m.Width, Height: m.Height}
		if m.Visible {
			r.visible.Add(id)
		}
	}
	return r
}

func removeAttr(n *html.Node, key string) (string, bool) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return a.Val, true
		}
	}
	return "", false
}

func (r *Rendered) BoundingBox(id dom.NodeID) Box {
	return r.boxes[id]
}

// IsVisible is false for elements the browser never measured, such as
// nodes the HTML parser synthesized.
func (r *Rendered) IsVisible(id dom.NodeID) bool {
	return r.visible.Contains(id)
}

func (r *Rendered) String() string {
	return fmt.Sprintf("Rendered{measured: %d}", len(r.boxes))
}
