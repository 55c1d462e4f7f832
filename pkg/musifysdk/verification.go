package musifysdk

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
)

// ErrResendUnavailable is returned while the cooldown runs or another
// resend is still in flight. No request is made.
var ErrResendUnavailable = errors.New("musifysdk: resend unavailable")

// VerificationFlow backs a verification screen: it verifies codes and
// rate-limits resends with a Cooldown.
type VerificationFlow struct {
	client   *SDKClient
	cooldown *Cooldown
	inFlight atomic.Bool
}

// NewVerificationFlow binds cooldown to the client. A nil cooldown ticks
// once per second.
func (c *SDKClient) NewVerificationFlow(cooldown *Cooldown) *VerificationFlow {
	if cooldown == nil {
		cooldown = NewCooldown(0)
	}
	return &VerificationFlow{client: c, cooldown: cooldown}
}

// Resend requests a new code. Only a successful resend starts the cooldown.
func (f *VerificationFlow) Resend(ctx context.Context, channel VerificationChannel, target string) (*MessageResponse, error) {
	if !f.inFlight.CompareAndSwap(false, true) {
		return nil, ErrResendUnavailable
	}
	defer f.inFlight.Store(false)

	if f.cooldown.Active() {
		return nil, ErrResendUnavailable
	}

	resp, err := f.client.ResendVerification(ctx, channel, target)
	if err != nil {
		return nil, err
	}

	f.cooldown.Start(DefaultResendCooldown)
	return resp, nil
}

// CanResend reports whether Resend would currently send a request.
func (f *VerificationFlow) CanResend() bool {
	return !f.inFlight.Load() && !f.cooldown.Active()
}

func (f *VerificationFlow) Cooldown() *Cooldown { return f.cooldown }

// Close stops the countdown, e.g. when the screen is dismissed.
func (f *VerificationFlow) Close() { f.cooldown.Stop() }

func (f *VerificationFlow) VerifyEmail(ctx context.Context, token string) (*MessageResponse, error) {
	return f.client.VerifyEmail(ctx, token)
}

func (f *VerificationFlow) VerifySMS(ctx context.Context, code, phoneNumber string) (*MessageResponse, error) {
	return f.client.VerifySMS(ctx, code, phoneNumber)
}

// ParseVerificationTarget splits a "channel:target" route argument such as
// "sms:+15550100200". Anything without a known channel prefix is treated as
// an email target.
func ParseVerificationTarget(s string) (VerificationChannel, string) {
	channel, target, ok := strings.Cut(s, ":")
	if !ok {
		return ChannelEmail, s
	}
	switch VerificationChannel(channel) {
	case ChannelEmail:
		return ChannelEmail, target
	case ChannelSMS:
		return ChannelSMS, target
	}
	return ChannelEmail, s
}
