package relay

const otpTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>{{ subject }}</title>
  <style>
    body { font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px; }
    .otp-container { background-color: #f5f5f5; padding: 15px; border-radius: 5px; margin: 20px 0; text-align: center; }
    .otp-code { font-size: 24px; font-weight: bold; letter-spacing: 5px; margin: 0; }
    .header { background-color: #4f46e5; color: white; padding: 20px; border-radius: 5px 5px 0 0; }
    .content { border: 1px solid #e5e7eb; border-top: none; padding: 20px; border-radius: 0 0 5px 5px; }
  </style>
</head>
<body>
  <div class="header">
    <h2 style="margin: 0; color: white;">{{ subject }}</h2>
  </div>
  <div class="content">
    <p>Hello,</p>
    <p>{{ intro }}</p>
    <div class="otp-container">
      <p style="font-size: 14px; margin-bottom: 10px;">{{ purpose | escape }} verification code:</p>
      <p class="otp-code">{{ otp | escape }}</p>
    </div>
    <p>The code works once.</p>
    <p>If you did not request this, please ignore this email.</p>
    <p>Best regards,<br>The Team</p>
  </div>
</body>
</html>
`
