package linkedin

// LinkedIn messaging UI selectors.
// These WILL break when LinkedIn changes their markup.
// Inspect https://www.linkedin.com/messaging/ in Chrome DevTools to
// verify/update, or override any chain via configs/selectors.yaml.
//
// Each chain is tried first-to-last; the first selector that yields
// elements wins and is recorded on the extracted rows so a later click
// can replay the exact same query.

const (
	messagingPath     = "/messaging/"
	threadURLFragment = "/messaging/thread/"
	loginPath         = "/login"

	// Voyager is LinkedIn's internal data API. Same-origin calls work from
	// the page context when the csrf-token header mirrors the JSESSIONID
	// cookie value.
	voyagerConversationsPath = "/voyager/api/messaging/conversations?keyVersion=LEGACY_INBOX"

	// Link in the top nav bar; only present when a session is active.
	selNavMessagingLink = `a.global-nav__primary-link[href*="/messaging/"]`

	debugScreenshotFile = "debug_messaging_page.png"
	errorScreenshotFile = "error_messaging_page.png"
)

var (
	// Messaging overlay / pane that hosts the conversation list.
	containerSelectors = []string{
		`div.msg-overlay-list-bubble`,
		`.msg-conversations-container`,
	}

	// The scrollable list itself.
	conversationListSelectors = []string{
		`.msg-conversations-container__conversations-list`,
	}

	// One selectable conversation row.
	cardSelectors = []string{
		`.msg-conversation-card`,
		`li.msg-conversation-listitem`,
		`.msg-conversation-listitem__link`,
		`.msg-selectable-entity`,
	}

	// Participant name(s) within a card. Group chats render a
	// comma-separated run of names here.
	nameSelectors = []string{
		`.msg-conversation-card__participant-names`,
		`.msg-conversation-listitem__participant-names`,
		`.msg-selectable-entity__content`,
	}

	// Badge that only exists while the conversation has unread messages.
	unreadSelectors = []string{
		`.msg-conversation-card__unread-count`,
	}

	// Relative last-activity stamp ("2:14 PM", "Yesterday", "Jul 3").
	timestampSelectors = []string{
		`.msg-conversation-card__time-stamp`,
	}

	// Preview of the most recent message.
	snippetSelectors = []string{
		`.msg-conversation-card__message-snippet`,
		`.msg-conversation-listitem__message-snippet`,
		`p[class*="message-snippet"]`,
	}

	// Present when the row is a pending connection invite, not a thread.
	pendingSelectors = []string{
		`.msg-conversation-card__invite-pending-status`,
	}

	// One event inside an open thread: either a message or a date heading.
	threadItemSelectors = []string{
		`li.msg-s-message-list__event`,
		`.msg-s-event-listitem`,
	}

	// Date heading rows ("Today", "Yesterday", "Jul 3").
	dividerSelectors = []string{
		`time.msg-s-message-list__time-heading`,
		`.msg-s-message-list__time-heading`,
	}

	// Message text body.
	bodySelectors = []string{
		`.msg-s-event-listitem__body`,
		`p.msg-s-event-listitem__body`,
	}

	// Clock stamp on the first message of a sender run. Later messages in
	// the same run omit it.
	clockSelectors = []string{
		`time.msg-s-message-group__timestamp`,
		`.msg-s-message-group__timestamp`,
	}

	// Sender name on the first message of a sender run.
	senderSelectors = []string{
		`.msg-s-message-group__name`,
		`.msg-s-message-group__profile-link`,
	}

	// Marker class present on messages received from the counterpart and
	// absent on our own.
	otherMarkerSelectors = []string{
		`.msg-s-event-listitem--other`,
	}

	// Message composer inside an open thread.
	editorSelectors = []string{
		`div.msg-form__contenteditable[contenteditable="true"]`,
		`.msg-form__contenteditable`,
	}
	sendButtonSelectors = []string{
		`button.msg-form__send-button`,
		`button[data-control-name="send"]`,
	}

	// New-conversation flow: compose button, recipient typeahead, and the
	// suggestion rows it pops up.
	newButtonSelectors = []string{
		`.msg-conversations-container__compose-btn`,
		`button[aria-label*="Compose"]`,
	}
	typeaheadSelectors = []string{
		`input.msg-connections-typeahead__search-field`,
		`input[placeholder*="Type a name"]`,
	}
	typeaheadResultSelectors = []string{
		`.msg-connections-typeahead__search-results li`,
		`li.msg-connections-typeahead__suggestion`,
	}

	// Top nav bar; only rendered for signed-in sessions.
	navSelectors = []string{
		`.global-nav`,
		`#global-nav`,
	}

	// Guest-page markers; seeing one of these means the session is gone.
	guestSelectors = []string{
		`a.nav__button-secondary`,
		`.sign-in-form`,
	}

	// Places the account holder's name shows up, tried in order. The nav
	// photo carries it in the alt text.
	accountNameSelectors = []string{
		`.global-nav__me-photo`,
		`.profile-rail-card__actor-link`,
		`.feed-identity-module__actor-meta`,
	}
)

// jsVoyagerConversations fetches the conversation list from the Voyager
// API in the page context, so the session cookies ride along and no
// cookie export is needed beyond the csrf token. Returns rows in the
// same shape as jsStateConversations.
const jsVoyagerConversations = `
async (path, csrf) => {
	const res = await fetch(path, {
		headers: {
			'csrf-token': csrf,
			'accept': 'application/vnd.linkedin.normalized+json+2.1',
			'x-restli-protocol-version': '2.0.0'
		},
		credentials: 'include'
	});
	if (!res.ok) {
		return { status: res.status, conversations: [] };
	}
	const data = await res.json();
	const included = (data && data.included) || [];
	const profiles = {};
	for (const item of included) {
		if (!item || !item.$type) continue;
		if (item.$type.endsWith('identity.shared.MiniProfile')) {
			const name = ((item.firstName || '') + ' ' + (item.lastName || '')).trim();
			if (name) profiles[item.entityUrn] = name;
		}
	}
	const out = [];
	for (const item of included) {
		if (!item || item.$type !== 'com.linkedin.voyager.messaging.Conversation') continue;
		const names = (item['*participants'] || [])
			.map(p => {
				const key = Object.keys(profiles).find(k => p.includes(k.split(':').pop()));
				return key ? profiles[key] : '';
			})
			.filter(n => n);
		if (!names.length) continue;
		out.push({
			urn: item.entityUrn || '',
			name: names.join(', '),
			unread: (item.unreadCount || 0) > 0,
			lastActivityAt: item.lastActivityAt || 0
		});
	}
	return { status: res.status, conversations: out };
}
`

// jsStateConversations is JavaScript evaluated in the page context as a
// fallback when CSS selectors return 0 conversation rows. LinkedIn embeds
// normalized Voyager JSON in <code id="bpr-guid-N"> islands; this digs
// conversation entities and their participant names out of them.
const jsStateConversations = `
(() => {
	const profiles = {};
	const convs = [];
	for (const el of document.querySelectorAll('code[id^="bpr-guid-"]')) {
		let data;
		try { data = JSON.parse(el.textContent); } catch (e) { continue; }
		const included = (data && data.included) || [];
		for (const item of included) {
			if (!item || !item.$type) continue;
			if (item.$type.endsWith('identity.shared.MiniProfile')) {
				const name = ((item.firstName || '') + ' ' + (item.lastName || '')).trim();
				if (name) profiles[item.entityUrn] = name;
			}
		}
		for (const item of included) {
			if (!item || item.$type !== 'com.linkedin.voyager.messaging.Conversation') continue;
			convs.push({
				urn: item.entityUrn || '',
				unread: (item.unreadCount || 0) > 0,
				lastActivityAt: item.lastActivityAt || 0,
				participants: item['*participants'] || []
			});
		}
	}
	return convs.map(c => {
		const names = c.participants
			.map(p => {
				const key = Object.keys(profiles).find(k => p.includes(k.split(':').pop()));
				return key ? profiles[key] : '';
			})
			.filter(n => n);
		return {
			urn: c.urn,
			name: names.join(', '),
			unread: c.unread,
			lastActivityAt: c.lastActivityAt
		};
	}).filter(c => c.name);
})()
`
