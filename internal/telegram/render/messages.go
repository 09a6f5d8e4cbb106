package render

import (
	"fmt"
	"strings"

	"github.com/UnsureAboli/telegram-n8n-video-bot/internal/telegram/template"
)

// MaxErrorBodyRunes caps how much of a workflow response body is shown to the user
const MaxErrorBodyRunes = 400

const (
	// Private wizard
	MsgWelcome = `👋 سلام! من ویدیوی شما را به‌همراه عنوان، توضیحات و تگ‌ها برای انتشار ارسال می‌کنم.

🎬 لطفاً ویدیو را بفرستید.`

	MsgAskTitle = `✅ ویدیو دریافت شد.

📝 عنوان ویدیو را بفرستید (حداکثر ۱۰۰ کاراکتر).`

	MsgAskDescription = `✅ عنوان ثبت شد.

📄 توضیحات ویدیو را بفرستید.`

	MsgAskTags = `✅ توضیحات ثبت شد.

🏷 تگ‌ها را با کاما یا «و» جدا کنید. مثال:
آموزش, برنامه نویسی و جاوااسکریپت`

	MsgSummary = `📋 لطفاً اطلاعات را بررسی کنید:

📝 عنوان: %s

📄 توضیحات:
%s

🏷 تگ‌ها: %s

برای ارسال /confirm و برای لغو /cancel را بفرستید.`

	MsgConfirmReminder = `ℹ️ برای ارسال /confirm (یا «تایید») و برای لغو /cancel (یا «لغو») را بفرستید.`

	MsgSubmitted = `✅ ویدیو برای انتشار ارسال شد.`

	MsgCancelled = `🛑 عملیات لغو شد. برای شروع دوباره /start را بفرستید.`

	MsgNeedStart = `ℹ️ ابتدا /start را بفرستید یا مستقیماً یک ویدیو ارسال کنید.`

	MsgVideoOnly = `❌ فقط ویدیو پذیرفته می‌شود. لطفاً فایل را به‌صورت ویدیو بفرستید.`

	MsgHelp = `🤖 راهنمای ربات

در گفتگوی خصوصی:
/start شروع ارسال ویدیوی جدید
/cancel لغو مراحل فعلی
/confirm تایید و ارسال نهایی

در گروه: روی پیام ویدیو ریپلای کنید، ربات را منشن کنید و قالب زیر را بفرستید.

`

	// Group template flow
	MsgGroupGuidance = `ℹ️ برای ارسال ویدیو، روی پیام ویدیو ریپلای کنید، ربات را منشن کنید و قالب زیر را کامل بفرستید. عنوان، توضیحات و حداقل یک تگ الزامی است.

`

	MsgTemplateExample = `@%s
لینک آپلود:
https://example.com/video
کانال:
Tech Daily
عنوان:
آموزش ساخت ربات تلگرام
توضیحات:
در این ویدیو یک ربات ساده می‌سازیم.
تگ‌ها:
آموزش, برنامه نویسی و جاوااسکریپت`

	MsgReplyToVideoWithLink = `❌ وقتی لینک آپلود وارد می‌کنید، باید روی پیام ویدیو ریپلای کنید تا مشخص باشد کدام ویدیو منظور است.`

	MsgReplyToVideo = `❌ ویدیویی پیدا نشد. ویدیو را همراه همین پیام بفرستید یا روی پیام ویدیو ریپلای کنید.`

	MsgFileRejected = `❌ تلگرام فایل را نپذیرفت: %s

لطفاً ویدیو را دوباره در همین گفتگو بفرستید و روی آن ریپلای کنید.`

	MsgDispatchFailed = `❌ ارسال ناموفق بود (کد %d).
%s`

	// Errors
	ErrGeneric             = `❌ خطایی رخ داد. دوباره تلاش کنید یا /start را بفرستید.`
	ErrInvalidInput        = `❌ ورودی نامعتبر است. لطفاً دوباره بفرستید.`
	ErrInternal            = `❌ خطای داخلی. لطفاً دوباره تلاش کنید.`
	ErrUnknownState        = `❌ وضعیت نامعتبر است. لطفاً /start را بفرستید.`
	ErrIncompleteState     = `❌ اطلاعات ناقص است. لطفاً با /start دوباره شروع کنید.`
	ErrWorkflowUnreachable = `❌ سرویس انتشار در دسترس نیست. چند لحظه بعد دوباره /confirm را بفرستید.`

	ErrWorkflowUnreachableGroup = `❌ سرویس انتشار در دسترس نیست. چند لحظه بعد قالب را دوباره در پاسخ به ویدیو بفرستید.`
	ErrNetworkIssue        = `❌ مشکل در ارتباط. کمی بعد دوباره تلاش کنید.`
	ErrServiceUnavailable  = `❌ سرویس موقتاً در دسترس نیست. چند دقیقه بعد تلاش کنید.`
	ErrTimeout             = `❌ عملیات بیش از حد طول کشید. دوباره تلاش کنید.`

	// Rate limiting
	MsgRateLimitFirst  = `⚠️ تعداد پیام‌ها زیاد است. لطفاً کمی صبر کنید.`
	MsgRateLimitSecond = `⚠️ از سقف پیام‌ها عبور کردید. حدود ۳۰ ثانیه صبر کنید.`
	MsgRateLimitRepeat = `🛑 پیام‌ها را خیلی سریع می‌فرستید. لطفاً یک دقیقه صبر کنید.`
)

// RenderSummary formats the confirmation summary shown before the final submit
func RenderSummary(title, description string, tags []string) string {
	hashtags := make([]string, 0, len(tags))
	for _, tag := range tags {
		hashtags = append(hashtags, "#"+tag)
	}

	return fmt.Sprintf(MsgSummary, title, description, strings.Join(hashtags, " "))
}

// RenderTemplateExample returns the group template addressed to the given bot handle
func RenderTemplateExample(botHandle string) string {
	if botHandle == "" {
		botHandle = "bot"
	}
	return fmt.Sprintf(MsgTemplateExample, strings.TrimPrefix(botHandle, "@"))
}

// RenderGroupGuidance formats the group usage hint followed by the template example
func RenderGroupGuidance(botHandle string) string {
	return MsgGroupGuidance + RenderTemplateExample(botHandle)
}

// RenderHelp formats the private /help answer
func RenderHelp(botHandle string) string {
	return MsgHelp + RenderTemplateExample(botHandle)
}

// RenderFileRejected formats Telegram's file rejection reason
func RenderFileRejected(description string) string {
	if strings.TrimSpace(description) == "" {
		description = "نامشخص"
	}
	return fmt.Sprintf(MsgFileRejected, description)
}

// RenderDispatchError formats a failed workflow response; the body is cut to MaxErrorBodyRunes
func RenderDispatchError(statusCode int, body string) string {
	return fmt.Sprintf(MsgDispatchFailed, statusCode, template.Truncate(strings.TrimSpace(body), MaxErrorBodyRunes))
}

// RenderRateLimitWarning escalates the warning text with the number of warnings already sent
func RenderRateLimitWarning(warningCount int) string {
	switch {
	case warningCount <= 1:
		return MsgRateLimitFirst
	case warningCount == 2:
		return MsgRateLimitSecond
	default:
		return MsgRateLimitRepeat
	}
}
