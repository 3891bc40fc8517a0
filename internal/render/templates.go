package render

// The page and email templates share article markup but diverge in chrome:
// the page is a standalone document served from the public bucket, the email
// body uses inline styles for client compatibility, and the text rendition
// is the plain-text alternative part.

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{ organisation.name | escape }} newsletter, {{ issue.date | display_date }}</title>
</head>
<body>
<header>
<h1>{{ organisation.name | escape }}</h1>
<p class="issue-date">{{ issue.date | display_date }}</p>
{% if issue.cover_photo != "" %}<img class="cover" src="{{ issue.cover_photo }}" alt="">{% endif %}
</header>
<main>
{% for article in articles %}<article id="{{ article.short_name }}">
<h2>{{ article.headline | escape }}</h2>
{% for section in article.sections %}{% if section.text != "" %}<p>{{ section.text | escape }}</p>
{% endif %}{% if section.image %}<img src="{{ section.image }}" alt="{{ section.alt | escape }}">
{% endif %}{% endfor %}</article>
{% endfor %}</main>
<footer>
<p>{{ organisation.footer | escape }}</p>
<p>{{ organisation.address | escape }}</p>
{% if organisation.twitter != "" %}<p><a href="https://twitter.com/{{ organisation.twitter }}">@{{ organisation.twitter }}</a></p>{% endif %}
</footer>
</body>
</html>
`

const emailHTMLTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{ organisation.name | escape }} newsletter</title>
</head>
<body style="margin:0;padding:0;background:#f4f4f4;">
<table role="presentation" width="100%" cellpadding="0" cellspacing="0">
<tr><td align="center">
<table role="presentation" width="600" cellpadding="0" cellspacing="0" style="background:#ffffff;font-family:Georgia,serif;color:#222222;">
<tr><td style="padding:24px;">
<h1 style="margin:0 0 4px 0;">{{ organisation.name | escape }}</h1>
<p style="margin:0;color:#666666;">{{ issue.date | display_date }}</p>
</td></tr>
{% for article in articles %}<tr><td style="padding:0 24px 16px 24px;">
<h2 style="margin:0 0 8px 0;">{{ article.headline | escape }}</h2>
{% for section in article.sections %}{% if section.text != "" %}<p style="margin:0 0 12px 0;">{{ section.text | escape }}</p>
{% endif %}{% if section.image %}<img src="{{ organisation.newsletter_url }}/{{ issue.date }}/{{ section.image }}" alt="{{ section.alt | escape }}" width="552" style="display:block;max-width:100%;margin:0 0 12px 0;">
{% endif %}{% endfor %}</td></tr>
{% endfor %}<tr><td style="padding:16px 24px 24px 24px;border-top:1px solid #dddddd;color:#666666;font-size:13px;">
<p style="margin:0 0 4px 0;">{{ organisation.footer | escape }}</p>
<p style="margin:0;">{{ organisation.address | escape }}</p>
</td></tr>
</table>
</td></tr>
</table>
</body>
</html>
`

const emailTextTemplate = `{{ organisation.name }} newsletter, {{ issue.date | display_date }}

{% for article in articles %}{{ article.headline }}

{% for section in article.sections %}{% if section.text != "" %}{{ section.text }}

{% endif %}{% endfor %}{% endfor %}--
{{ organisation.footer }}
{{ organisation.address }}
`
