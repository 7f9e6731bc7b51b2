package service

const (
	subjectPasswordReset      = "Your Password Reset Code"
	subjectVerifySubscription = "Verify Your Subscription"
	subjectWelcome            = "Welcome to Our Newsletter!"
	subjectConfirmUnsubscribe = "Confirm Unsubscription"
	subjectUnsubscribed       = "You've Been Unsubscribed"
	subjectCouponRequest      = "Your Coupon Code Request"
	subjectCouponCode         = "Your Coupon Code"
	subjectSMTPSettingsTest   = "SMTP Settings Test"
)

const signature = `<p>Best regards,<br>The Team</p>`

const passwordResetTemplate = `<p>Hello {{ name | escape }},</p>
<p>We received a request to reset your password. Use the following code to choose a new one:</p>
<p style="font-size:24px;font-weight:bold;letter-spacing:4px">{{ code }}</p>
<p>If you did not request a password reset, please ignore this email.</p>
` + signature

const verifySubscriptionTemplate = `<p>Hello {{ name | escape }},</p>
<p>Thank you for subscribing to our newsletter!</p>
<p>To verify your subscription, please use the following verification code:</p>
<p style="font-size:24px;font-weight:bold;letter-spacing:4px">{{ code }}</p>
<p>If you did not request this subscription, please ignore this email.</p>
` + signature

const welcomeTemplate = `<p>Hello {{ name | escape }},</p>
<p>Thank you for verifying your subscription!</p>
<p>You are now subscribed to our newsletter and will receive updates from us.</p>
` + signature

const confirmUnsubscribeTemplate = `<p>Hello {{ name | escape }},</p>
<p>We received a request to unsubscribe from our newsletter.</p>
<p>To confirm this request, please use the following verification code:</p>
<p style="font-size:24px;font-weight:bold;letter-spacing:4px">{{ code }}</p>
<p>If you did not request to unsubscribe, please ignore this email.</p>
` + signature

const unsubscribedTemplate = `<p>Hello {{ name | escape }},</p>
<p>We're sorry to see you go. You have been successfully unsubscribed from our newsletter.</p>
<p>If you change your mind, you can always subscribe again.</p>
` + signature

const couponRequestTemplate = `<p>Hello,</p>
<p>You have requested a coupon code.</p>
<p>To verify your request, please use the following code:</p>
<p style="font-size:24px;font-weight:bold;letter-spacing:4px">{{ code }}</p>
<p>This code will expire in {{ hours }} hours.</p>
` + signature

const couponCodeTemplate = `<p>Hello,</p>
<p>Thank you for verifying your coupon request.</p>
<p>Here's your coupon code: <strong>{{ code | escape }}</strong></p>
<p>Description: {{ description | escape }}</p>
` + signature

const smtpTestTemplate = `<p>This is a test email to verify your SMTP settings.</p>
<ul>
<li>Server: {{ host | escape }}</li>
<li>Port: {{ port }}</li>
<li>Encryption: {{ encryption }}</li>
<li>Username: {{ username | escape }}</li>
</ul>
<p>If you're seeing this email, your SMTP settings are correctly configured!</p>`
