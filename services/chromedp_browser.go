package services

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/sirupsen/logrus"
)

const (
	watchButtonXPath = `//a[contains(concat(' ', normalize-space(@class), ' '), ' su-button ') and contains(., 'Watch')]`
	embedSelector    = "iframe.yt-embed"
)

// ChromeBrowser launches one headless Chrome process per replay page
type ChromeBrowser struct {
	allocCtx    context.Context
	cancelAlloc context.CancelFunc
	logger      *logrus.Entry
}

// NewChromeBrowser creates the exec allocator shared by every session
func NewChromeBrowser() *ChromeBrowser {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-images", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent("Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	return &ChromeBrowser{
		allocCtx:    allocCtx,
		cancelAlloc: cancelAlloc,
		logger:      logrus.WithField("component", "ChromeBrowser"),
	}
}

// NewPage starts a fresh browser session and returns its first tab
func (b *ChromeBrowser) NewPage(ctx context.Context) (ReplayPage, error) {
	tabCtx, cancel := chromedp.NewContext(b.allocCtx)
	if err := attach(ctx, tabCtx, cancel); err != nil {
		return nil, fmt.Errorf("failed to start browser session: %w", err)
	}

	page := &chromePage{ctx: tabCtx, cancel: cancel}
	if err := page.run(ctx, chromedp.EmulateViewport(1920, 1080)); err != nil {
		cancel()
		return nil, fmt.Errorf("failed to size browser window: %w", err)
	}
	return page, nil
}

// Close shuts down the allocator and any sessions still running
func (b *ChromeBrowser) Close() {
	b.cancelAlloc()
	b.logger.Debug("Browser allocator closed")
}

// attach performs the first Run on a fresh chromedp context. That Run starts
// the browser or attaches the target and binds it to tabCtx for its lifetime,
// so it must not carry a deadline. Cancelling ctx still tears the tab down.
func attach(ctx, tabCtx context.Context, cancel context.CancelFunc) error {
	stop := context.AfterFunc(ctx, cancel)
	err := chromedp.Run(tabCtx)
	if !stop() {
		cancel()
		if err == nil {
			err = ctx.Err()
		}
		return err
	}
	if err != nil {
		cancel()
	}
	return err
}

type chromePage struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// run executes actions on an attached tab, bounded by the caller's deadline and cancellation.
func (p *chromePage) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	if deadline, ok := ctx.Deadline(); ok {
		cancel()
		runCtx, cancel = context.WithDeadline(p.ctx, deadline)
	}
	defer cancel()

	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (p *chromePage) Navigate(ctx context.Context, url string) error {
	return p.run(ctx, chromedp.Navigate(url))
}

func (p *chromePage) ClickThrough(ctx context.Context) (ReplayPage, error) {
	opener := chromedp.FromContext(p.ctx).Target.TargetID
	newTarget := chromedp.WaitNewTarget(p.ctx, func(info *target.Info) bool {
		return info.Type == "page" && info.OpenerID == opener
	})

	if err := p.run(ctx, chromedp.Click(watchButtonXPath, chromedp.BySearch, chromedp.NodeVisible)); err != nil {
		return nil, fmt.Errorf("watch button click failed: %w", err)
	}

	var targetID target.ID
	select {
	case targetID = <-newTarget:
	case <-ctx.Done():
		return nil, fmt.Errorf("watch button opened no new tab: %w", ctx.Err())
	}

	popupCtx, cancel := chromedp.NewContext(p.ctx, chromedp.WithTargetID(targetID))
	if err := attach(ctx, popupCtx, cancel); err != nil {
		return nil, fmt.Errorf("failed to attach new tab: %w", err)
	}

	popup := &chromePage{ctx: popupCtx, cancel: cancel}
	if err := popup.run(ctx, chromedp.WaitReady("body", chromedp.ByQuery)); err != nil {
		cancel()
		return nil, fmt.Errorf("new tab did not load: %w", err)
	}
	return popup, nil
}

func (p *chromePage) EmbedSource(ctx context.Context) (string, error) {
	var (
		src   string
		found bool
	)
	err := p.run(ctx,
		chromedp.WaitReady(embedSelector, chromedp.ByQuery),
		chromedp.AttributeValue(embedSelector, "src", &src, &found, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEmbedNotFound, err)
	}
	if !found {
		return "", nil
	}
	return src, nil
}

func (p *chromePage) Close() {
	p.cancel()
}
