package server

const statusTemplate = "status"

const statusPage = `<!DOCTYPE html>
<html>
<head>
    <title>Waifu Bot Status</title>
    <meta http-equiv="Cache-Control" content="no-cache, no-store, must-revalidate">
    <meta http-equiv="Pragma" content="no-cache">
    <meta http-equiv="Expires" content="0">
    <style>
        body { font-family: Arial, sans-serif; max-width: 800px; margin: 50px auto; padding: 20px; }
        .status { background: #4CAF50; color: white; padding: 20px; border-radius: 10px; text-align: center; }
        .info { background: #f5f5f5; padding: 20px; margin-top: 20px; border-radius: 10px; }
        h1 { margin: 0; }
        p { margin: 10px 0; }
    </style>
</head>
<body>
    <div class="status">
        <h1>✅ Waifu Bot is Running!</h1>
        <p>Last checked: {{.LastChecked}}</p>
    </div>
    <div class="info">
        <h2>🤖 Bot Information</h2>
        <p><strong>Status:</strong> Online and Active</p>
        <p><strong>Platform:</strong> Telegram</p>
        <p><strong>Uptime:</strong> {{.Uptime}} seconds</p>
    </div>
</body>
</html>
`
