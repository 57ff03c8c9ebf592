package ops

// Server-side scripts, executed through the remote-CLI backend. Each
// reads its input from $input (see backend.WrapPayload) and prints a
// single JSON object as its last line of output.

const phpUpdateNode = `
$nid = (int) $input['nid'];
$changes = $input['changes'];
$state = $input['state'];
$reason = $input['reason'];
$node = \Drupal::entityTypeManager()->getStorage('node')->load($nid);
if (!$node) {
  print json_encode(['success' => FALSE, 'error' => 'node not found']);
  return;
}
$missing = [];
foreach ($changes as $field => $value) {
  if (!$node->hasField($field)) {
    $missing[] = $field;
    continue;
  }
  $items = $node->get($field)->getValue();
  if (isset($items[0]) && is_array($items[0]) && array_key_exists('value', $items[0])) {
    $items[0]['value'] = $value;
    $node->set($field, $items);
  }
  else {
    $node->set($field, $value);
  }
}
if (!empty($missing)) {
  print json_encode(['success' => FALSE, 'error' => 'field not found: ' . implode(', ', $missing)]);
  return;
}
if ($node->hasField('moderation_state')) {
  $node->set('moderation_state', $state);
}
$node->setNewRevision(TRUE);
$node->setRevisionLogMessage($reason);
$node->setRevisionCreationTime(\Drupal::time()->getRequestTime());
$node->save();
$out = ['success' => TRUE, 'nid' => $node->id(), 'revision_id' => $node->getRevisionId()];
if ($node->hasField('moderation_state')) {
  $out['moderation_state'] = $node->get('moderation_state')->value;
}
print json_encode($out);
`

const phpFieldValue = `
$nid = (int) $input['nid'];
$field = $input['field'];
$node = \Drupal::entityTypeManager()->getStorage('node')->load($nid);
if (!$node) {
  print json_encode(['success' => FALSE, 'error' => 'node not found']);
  return;
}
if (!$node->hasField($field)) {
  print json_encode(['success' => FALSE, 'error' => 'field not found: ' . $field]);
  return;
}
print json_encode(['success' => TRUE, 'value' => (string) ($node->get($field)->value ?? '')]);
`

const phpAddTag = `
$nid = (int) $input['nid'];
$field = $input['field'];
$tid = (int) $input['tid'];
$state = $input['state'];
$reason = $input['reason'];
$node = \Drupal::entityTypeManager()->getStorage('node')->load($nid);
if (!$node) {
  print json_encode(['success' => FALSE, 'error' => 'node not found']);
  return;
}
if (!$node->hasField($field)) {
  print json_encode(['success' => FALSE, 'error' => 'field not found: ' . $field]);
  return;
}
$term = \Drupal::entityTypeManager()->getStorage('taxonomy_term')->load($tid);
if (!$term) {
  print json_encode(['success' => FALSE, 'error' => 'term not found: ' . $tid]);
  return;
}
$current = array_map('intval', array_column($node->get($field)->getValue(), 'target_id'));
if (in_array($tid, $current, TRUE)) {
  print json_encode([
    'success' => TRUE,
    'message' => 'tag already present',
    'nid' => $node->id(),
    'revision_id' => $node->getRevisionId(),
  ]);
  return;
}
if (!$node->hasField('moderation_state') || empty($node->get('moderation_state')->value)) {
  print json_encode(['success' => FALSE, 'error' => 'content moderation is not enabled for this node']);
  return;
}
$workflow = \Drupal::service('content_moderation.moderation_information')->getWorkflowForEntity($node);
if (!$workflow) {
  print json_encode(['success' => FALSE, 'error' => 'no workflow found for this content type']);
  return;
}
$states = $workflow->getTypePlugin()->getStates();
if (!isset($states[$state])) {
  print json_encode(['success' => FALSE, 'error' => "moderation state '$state' not found, available states: " . implode(', ', array_keys($states))]);
  return;
}
$current[] = $tid;
$node->set($field, $current);
$node->set('moderation_state', $state);
$node->setNewRevision(TRUE);
$node->setRevisionLogMessage($reason);
$node->setRevisionCreationTime(\Drupal::time()->getRequestTime());
$node->save();
print json_encode([
  'success' => TRUE,
  'nid' => $node->id(),
  'revision_id' => $node->getRevisionId(),
  'moderation_state' => $node->get('moderation_state')->value,
]);
`

const phpRemoveTag = `
$nid = (int) $input['nid'];
$field = $input['field'];
$tid = (int) $input['tid'];
$state = $input['state'];
$reason = $input['reason'];
$node = \Drupal::entityTypeManager()->getStorage('node')->load($nid);
if (!$node) {
  print json_encode(['success' => FALSE, 'error' => 'node not found']);
  return;
}
if (!$node->hasField($field)) {
  print json_encode(['success' => FALSE, 'error' => 'field not found: ' . $field]);
  return;
}
$current = array_map('intval', array_column($node->get($field)->getValue(), 'target_id'));
if (!in_array($tid, $current, TRUE)) {
  print json_encode([
    'success' => TRUE,
    'message' => 'tag not present',
    'nid' => $node->id(),
    'revision_id' => $node->getRevisionId(),
  ]);
  return;
}
if (!$node->hasField('moderation_state') || empty($node->get('moderation_state')->value)) {
  print json_encode(['success' => FALSE, 'error' => 'content moderation is not enabled for this node']);
  return;
}
$workflow = \Drupal::service('content_moderation.moderation_information')->getWorkflowForEntity($node);
if (!$workflow) {
  print json_encode(['success' => FALSE, 'error' => 'no workflow found for this content type']);
  return;
}
$states = $workflow->getTypePlugin()->getStates();
if (!isset($states[$state])) {
  print json_encode(['success' => FALSE, 'error' => "moderation state '$state' not found, available states: " . implode(', ', array_keys($states))]);
  return;
}
$remaining = array_values(array_diff($current, [$tid]));
$node->set($field, $remaining);
$node->set('moderation_state', $state);
$node->setNewRevision(TRUE);
$node->setRevisionLogMessage($reason);
$node->setRevisionCreationTime(\Drupal::time()->getRequestTime());
$node->save();
print json_encode([
  'success' => TRUE,
  'nid' => $node->id(),
  'revision_id' => $node->getRevisionId(),
  'moderation_state' => $node->get('moderation_state')->value,
]);
`

const phpReplaceTag = `
$nid = (int) $input['nid'];
$field = $input['field'];
$old = (int) $input['old_tid'];
$new = (int) $input['new_tid'];
$state = $input['state'];
$reason = $input['reason'];
$node = \Drupal::entityTypeManager()->getStorage('node')->load($nid);
if (!$node) {
  print json_encode(['success' => FALSE, 'error' => 'node not found']);
  return;
}
if (!$node->hasField($field)) {
  print json_encode(['success' => FALSE, 'error' => 'field not found: ' . $field]);
  return;
}
$term = \Drupal::entityTypeManager()->getStorage('taxonomy_term')->load($new);
if (!$term) {
  print json_encode(['success' => FALSE, 'error' => 'term not found: ' . $new]);
  return;
}
$current = array_map('intval', array_column($node->get($field)->getValue(), 'target_id'));
if (!in_array($old, $current, TRUE)) {
  print json_encode(['success' => FALSE, 'error' => 'tag to replace not present: ' . $old]);
  return;
}
if (!$node->hasField('moderation_state') || empty($node->get('moderation_state')->value)) {
  print json_encode(['success' => FALSE, 'error' => 'content moderation is not enabled for this node']);
  return;
}
$workflow = \Drupal::service('content_moderation.moderation_information')->getWorkflowForEntity($node);
if (!$workflow) {
  print json_encode(['success' => FALSE, 'error' => 'no workflow found for this content type']);
  return;
}
$states = $workflow->getTypePlugin()->getStates();
if (!isset($states[$state])) {
  print json_encode(['success' => FALSE, 'error' => "moderation state '$state' not found, available states: " . implode(', ', array_keys($states))]);
  return;
}
$updated = [];
foreach ($current as $t) {
  $updated[] = ($t === $old) ? $new : $t;
}
$node->set($field, array_values(array_unique($updated)));
$node->set('moderation_state', $state);
$node->setNewRevision(TRUE);
$node->setRevisionLogMessage($reason);
$node->setRevisionCreationTime(\Drupal::time()->getRequestTime());
$node->save();
print json_encode([
  'success' => TRUE,
  'nid' => $node->id(),
  'revision_id' => $node->getRevisionId(),
  'moderation_state' => $node->get('moderation_state')->value,
]);
`

const phpListTerms = `
$vid = $input['vocabulary'];
$terms = \Drupal::entityTypeManager()->getStorage('taxonomy_term')->loadTree($vid);
$out = [];
foreach ($terms as $term) {
  $out[] = ['tid' => $term->tid, 'name' => $term->name, 'depth' => $term->depth];
}
print json_encode($out);
`

const phpTermID = `
$vid = $input['vocabulary'];
$name = $input['name'];
$terms = \Drupal::entityTypeManager()->getStorage('taxonomy_term')->loadByProperties([
  'vid' => $vid,
  'name' => $name,
]);
if (empty($terms)) {
  print json_encode(['success' => FALSE, 'error' => 'term not found: ' . $name]);
  return;
}
$term = reset($terms);
print json_encode(['success' => TRUE, 'value' => (string) $term->id()]);
`

const phpUpdateMediaAlt = `
$mid = (int) $input['mid'];
$alt = $input['alt'];
$reason = $input['reason'];
$media = \Drupal::entityTypeManager()->getStorage('media')->load($mid);
if (!$media) {
  print json_encode(['success' => FALSE, 'error' => 'media not found']);
  return;
}
$updated = FALSE;
$old = '';
foreach (['field_media_image', 'image', 'field_image'] as $f) {
  if (!$media->hasField($f)) {
    continue;
  }
  $items = $media->get($f)->getValue();
  if (empty($items) || !array_key_exists('alt', $items[0])) {
    continue;
  }
  $old = (string) $items[0]['alt'];
  $items[0]['alt'] = $alt;
  $media->set($f, $items);
  $updated = TRUE;
  break;
}
if (!$updated) {
  print json_encode(['success' => FALSE, 'error' => 'no image field with alt text found']);
  return;
}
if ($media->getEntityType()->isRevisionable()) {
  $media->setNewRevision(TRUE);
  if (method_exists($media, 'setRevisionLogMessage')) {
    $media->setRevisionLogMessage($reason);
  }
}
$media->save();
print json_encode(['success' => TRUE, 'mid' => $media->id(), 'old' => $old]);
`
